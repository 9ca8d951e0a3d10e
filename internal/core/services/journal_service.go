package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	"github.com/SscSPs/mma_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_ledger/internal/core/ports/services"
	"github.com/SscSPs/mma_ledger/internal/utils/accounting"
)

const reversalPrefix = "Reversal of "

// journalService is the posting engine. It is the only path that mutates
// account balances, and every mutation happens inside one store transaction
// together with the entry it belongs to.
type journalService struct {
	BaseService
	store       portsrepo.Store
	accounts    *accountService
	clock       ports.Clock
	scale       int32
	postTimeout time.Duration
	posted      metric.Int64Counter
}

// NewJournalService creates a new posting engine backed by store.
func NewJournalService(store portsrepo.Store, opts ...ServiceOption) portssvc.JournalSvcFacade {
	o := newServiceOptions(opts)
	accounts := newAccountService(store, newQueryService(store, o), o)
	return newJournalService(store, accounts, o)
}

func newJournalService(store portsrepo.Store, accounts *accountService, o serviceOptions) *journalService {
	s := &journalService{
		BaseService: newBaseService(o),
		store:       store,
		accounts:    accounts,
		clock:       o.clock,
		scale:       o.minorUnitScale,
		postTimeout: o.postTimeout,
	}
	counter, err := o.meterProvider.Meter(instrumentationName).Int64Counter(
		"ledger.entries.posted",
		metric.WithDescription("Number of journal entries committed"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		// The API returns a usable no-op instrument alongside the error.
		s.LogWarn(context.Background(), "Failed to create posted entries counter", slog.String("error", err.Error()))
	}
	s.posted = counter
	return s
}

// Ensure journalService implements the JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// Post validates a draft and commits it atomically. On any error nothing is
// written and no balance changes.
func (s *journalService) Post(ctx context.Context, draft *domain.DraftEntry) (*domain.JournalEntry, error) {
	ctx, span := s.startSpan(ctx, "ledger.post")
	entry, err := s.post(ctx, draft)
	if entry != nil {
		span.SetAttributes(attribute.String("entry_id", entry.EntryID), attribute.Int("lines", len(entry.Lines)))
	}
	endSpan(span, err)
	return entry, err
}

func (s *journalService) post(ctx context.Context, draft *domain.DraftEntry) (*domain.JournalEntry, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: draft entry is required", apperrors.ErrValidation)
	}

	lines := draft.Lines()
	for _, l := range lines {
		if err := domain.CheckAmount(l.AccountCode, l.Amount, s.scale); err != nil {
			return nil, err
		}
	}
	if err := accounting.ValidateBalance(lines); err != nil {
		s.LogWarn(ctx, "Rejected entry", slog.String("reason", err.Error()))
		return nil, err
	}

	now := s.clock.Now()
	entryDate := draft.Date()
	if entryDate.IsZero() {
		entryDate = domain.NormalizeDate(now)
	}

	entry := s.newEntry(entryDate, draft.Description(), draft.Reference(), nil, lines, now)
	if err := s.commit(ctx, entry, lines, now); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_date", entry.EntryDate.Format(time.DateOnly)),
		slog.Int("lines", len(entry.Lines)))
	return entry, nil
}

// Reverse posts a compensating entry with every line's side flipped. The
// reversal keeps the original's date so point-in-time balances on or after
// that date net to zero.
func (s *journalService) Reverse(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	ctx, span := s.startSpan(ctx, "ledger.reverse", attribute.String("reverses_entry_id", entryID))
	entry, err := s.reverse(ctx, entryID)
	if entry != nil {
		span.SetAttributes(attribute.String("entry_id", entry.EntryID))
	}
	endSpan(span, err)
	return entry, err
}

func (s *journalService) reverse(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	ctx, cancel := s.withPostTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	var reversal *domain.JournalEntry

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.StoreTx) error {
		original, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if original.ReversedByID != nil {
			return &apperrors.AlreadyReversedError{EntryID: original.EntryID, ReversalID: *original.ReversedByID}
		}

		lines := make([]domain.DraftLine, 0, len(original.Lines))
		for _, l := range original.Lines {
			lines = append(lines, domain.DraftLine{
				AccountCode: l.AccountCode,
				Amount:      l.Amount,
				Side:        l.Side.Opposite(),
			})
		}

		description := reversalPrefix + original.Description
		if original.Description == "" {
			description = reversalPrefix + "entry " + original.EntryID
		}
		reversesID := original.EntryID
		reversal = s.newEntry(original.EntryDate, description, original.Reference, &reversesID, lines, now)

		return s.applyEntry(ctx, tx, reversal, lines, now)
	})
	if err != nil {
		var already *apperrors.AlreadyReversedError
		switch {
		case errors.As(err, &already):
			s.LogWarn(ctx, "Entry already reversed", slog.String("entry_id", entryID))
		case errors.Is(err, apperrors.ErrNotFound):
		default:
			s.LogError(ctx, err, "Failed to reverse entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	s.posted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("reversal", true)))
	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.EntryID))
	return reversal, nil
}

// GetEntry retrieves a committed entry with its lines.
func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.store.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *journalService) commit(ctx context.Context, entry *domain.JournalEntry, lines []domain.DraftLine, now time.Time) error {
	ctx, cancel := s.withPostTimeout(ctx)
	defer cancel()

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.StoreTx) error {
		return s.applyEntry(ctx, tx, entry, lines, now)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to commit entry", slog.String("entry_id", entry.EntryID))
		}
		return err
	}
	s.posted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("reversal", false)))
	return nil
}

// applyEntry locks the touched accounts, moves their balances and stores the
// entry, all through the same tx.
func (s *journalService) applyEntry(ctx context.Context, tx portsrepo.StoreTx, entry *domain.JournalEntry, lines []domain.DraftLine, now time.Time) error {
	codes := distinctCodes(lines)
	accounts, err := tx.LockAccounts(ctx, codes)
	if err != nil {
		return err
	}

	changes, err := accounting.BalanceChanges(lines, accounts)
	if err != nil {
		return err
	}

	for _, code := range codes {
		if err := s.accounts.applyDelta(ctx, tx, code, changes[code], now); err != nil {
			return err
		}
	}

	if err := tx.SaveEntry(ctx, *entry); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

func (s *journalService) newEntry(date time.Time, description, reference string, reverses *string, lines []domain.DraftLine, now time.Time) *domain.JournalEntry {
	entry := &domain.JournalEntry{
		EntryID:         newID(),
		EntryDate:       date,
		Description:     description,
		Reference:       reference,
		ReversesEntryID: reverses,
		Status:          domain.Posted,
		CreatedAt:       now,
		Lines:           make([]domain.JournalLine, 0, len(lines)),
	}
	for _, l := range lines {
		entry.Lines = append(entry.Lines, domain.JournalLine{
			LineID:      newID(),
			EntryID:     entry.EntryID,
			AccountCode: l.AccountCode,
			Amount:      l.Amount,
			Side:        l.Side,
			EntryDate:   date,
			CreatedAt:   now,
		})
	}
	return entry
}

func (s *journalService) withPostTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.postTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.postTimeout)
}

// distinctCodes returns the account codes in ascending order, which is also
// the lock order.
func distinctCodes(lines []domain.DraftLine) []string {
	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		codes = append(codes, l.AccountCode)
	}
	slices.Sort(codes)
	return slices.Compact(codes)
}

// newID returns a time-ordered UUID so ids sort by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
