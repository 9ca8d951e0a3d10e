package services

import (
	"context"

	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntry retrieves a committed entry with its lines.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// JournalWriterSvc defines the posting operations. These are the only paths
// that mutate account balances.
type JournalWriterSvc interface {
	// Post validates a draft and commits it atomically.
	Post(ctx context.Context, draft *domain.DraftEntry) (*domain.JournalEntry, error)

	// Reverse posts a compensating entry with every line's side flipped.
	Reverse(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
