package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mma_ledger/internal/models"
	"github.com/SscSPs/mma_ledger/internal/utils/mapping"
)

const lineColumns = `line_id, entry_id, account_code, amount, side, entry_date, created_at`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements the journal read ports
var (
	_ portsrepo.JournalReader = (*PgxJournalRepository)(nil)
	_ portsrepo.LineReader    = (*PgxJournalRepository)(nil)
)

// FindEntryByID retrieves an entry with its lines. Status is derived from
// whether a reversal row points at it.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return findEntry(ctx, r.Pool, entryID, false)
}

// findEntry loads an entry and its lines through q. With forUpdate the entry
// row stays locked until q's transaction ends.
func findEntry(ctx context.Context, q dbtx, entryID string, forUpdate bool) (*domain.JournalEntry, error) {
	query := `
		SELECT e.entry_id, e.entry_date, e.description, e.reference, e.reverses_entry_id, e.created_at, r.entry_id
		FROM journal_entries e
		LEFT JOIN journal_entries r ON r.reverses_entry_id = e.entry_id
		WHERE e.entry_id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE OF e`
	}

	var m models.JournalEntry
	err := q.QueryRow(ctx, query, entryID).Scan(
		&m.EntryID,
		&m.EntryDate,
		&m.Description,
		&m.Reference,
		&m.ReversesEntryID,
		&m.CreatedAt,
		&m.ReversedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(apperrors.KindJournalEntry, entryID)
		}
		return nil, fmt.Errorf("failed to find entry by ID %s: %w", entryID, err)
	}

	// Line ids are time ordered, so this is insertion order.
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE entry_id = $1 ORDER BY line_id;`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	lines, err := collectLines(rows)
	if err != nil {
		return nil, err
	}

	entry := mapping.ToDomainJournalEntry(m, lines)
	return &entry, nil
}

func collectLines(rows pgx.Rows) ([]models.JournalLine, error) {
	defer rows.Close()
	var lines []models.JournalLine
	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(
			&l.LineID,
			&l.EntryID,
			&l.AccountCode,
			&l.Amount,
			&l.Side,
			&l.EntryDate,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal line rows: %w", err)
	}
	return lines, nil
}

// saveEntry inserts the entry row and all of its lines in one batch.
// Must be called within a transaction.
func saveEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	modelEntry := mapping.ToModelJournalEntry(entry)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO journal_entries (entry_id, entry_date, description, reference, reverses_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		modelEntry.EntryID,
		modelEntry.EntryDate,
		modelEntry.Description,
		modelEntry.Reference,
		modelEntry.ReversesEntryID,
		modelEntry.CreatedAt,
	)

	lineQuery := `INSERT INTO journal_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7);`
	for _, line := range entry.Lines {
		modelLine := mapping.ToModelJournalLine(line)
		batch.Queue(lineQuery,
			modelLine.LineID,
			modelLine.EntryID,
			modelLine.AccountCode,
			modelLine.Amount,
			modelLine.Side,
			modelLine.EntryDate,
			modelLine.CreatedAt,
		)
	}

	// Close reports the first failing statement.
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if entry.ReversesEntryID != nil && uniqueViolation(err, reversesUniqueIndex) {
			return &apperrors.AlreadyReversedError{EntryID: *entry.ReversesEntryID}
		}
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// findReversalID returns the id of the entry that reverses entryID.
func findReversalID(ctx context.Context, q dbtx, entryID string) (string, error) {
	var id string
	err := q.QueryRow(ctx, `SELECT entry_id FROM journal_entries WHERE reverses_entry_id = $1;`, entryID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFoundError(apperrors.KindJournalEntry, entryID)
		}
		return "", fmt.Errorf("failed to find reversal of entry %s: %w", entryID, err)
	}
	return id, nil
}

// SumLines totals the posted lines of one account with entry date <= asOf.
func (r *PgxJournalRepository) SumLines(ctx context.Context, accountCode string, asOf *time.Time) (domain.LineTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE side = 'DEBIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE side = 'CREDIT'), 0)
		FROM journal_lines
		WHERE account_code = $1 AND ($2::date IS NULL OR entry_date <= $2::date);
	`
	var debits, credits decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountCode, asOf).Scan(&debits, &credits); err != nil {
		return domain.LineTotals{}, fmt.Errorf("failed to sum lines for account %s: %w", accountCode, err)
	}
	return domain.LineTotals{Debits: debits, Credits: credits}, nil
}

// ListAccountTotals returns every account with its line totals. It is one
// statement, so balances and totals share a snapshot even under READ COMMITTED.
func (r *PgxJournalRepository) ListAccountTotals(ctx context.Context, asOf *time.Time) ([]domain.AccountTotals, error) {
	query := `
		SELECT ` + accountColumns + `,
		       COALESCE(t.debits, 0), COALESCE(t.credits, 0)
		FROM accounts
		LEFT JOIN (
			SELECT account_code,
			       SUM(amount) FILTER (WHERE side = 'DEBIT') AS debits,
			       SUM(amount) FILTER (WHERE side = 'CREDIT') AS credits
			FROM journal_lines
			WHERE ($1::date IS NULL OR entry_date <= $1::date)
			GROUP BY account_code
		) t ON t.account_code = accounts.code
		ORDER BY code;
	`
	rows, err := r.Pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list account totals: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountTotals
	for rows.Next() {
		var m models.Account
		var t domain.LineTotals
		if err := rows.Scan(
			&m.Code, &m.Name, &m.AccountType, &m.SubType, &m.Category,
			&m.Balance, &m.CreatedAt, &m.UpdatedAt,
			&t.Debits, &t.Credits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account totals row: %w", err)
		}
		out = append(out, domain.AccountTotals{Account: mapping.ToDomainAccount(m), Totals: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account totals rows: %w", err)
	}
	return out, nil
}

// ListLines returns up to q.Limit lines ordered by (entry date, entry id, line id),
// resuming strictly after q.After when set.
func (r *PgxJournalRepository) ListLines(ctx context.Context, q portsrepo.LineQuery) ([]domain.JournalLine, error) {
	var afterDate *time.Time
	var afterEntry, afterLine string
	if q.After != nil {
		d := domain.NormalizeDate(q.After.EntryDate)
		afterDate, afterEntry, afterLine = &d, q.After.EntryID, q.After.LineID
	}

	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE account_code = $1
		  AND entry_date BETWEEN $2::date AND $3::date
		  AND ($4::date IS NULL OR (entry_date, entry_id, line_id) > ($4::date, $5::text, $6::text))
		ORDER BY entry_date, entry_id, line_id
		LIMIT $7;
	`
	rows, err := r.Pool.Query(ctx, query,
		q.AccountCode,
		domain.NormalizeDate(q.From),
		domain.NormalizeDate(q.To),
		afterDate, afterEntry, afterLine,
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines for account %s: %w", q.AccountCode, err)
	}
	lines, err := collectLines(rows)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}
