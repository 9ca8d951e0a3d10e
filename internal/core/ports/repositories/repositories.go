package repositories

// RepositoryProvider holds the repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Store Store
}
