package mapping

import (
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	"github.com/SscSPs/mma_ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry.
// Lines and the derived status are not part of the row.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.EntryID,
		EntryDate:       domain.NormalizeDate(d.EntryDate),
		Description:     d.Description,
		Reference:       d.Reference,
		ReversesEntryID: d.ReversesEntryID,
		CreatedAt:       d.CreatedAt,
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry,
// deriving the status from the joined reversal id.
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	entry := domain.JournalEntry{
		EntryID:         m.EntryID,
		EntryDate:       domain.NormalizeDate(m.EntryDate),
		Description:     m.Description,
		Reference:       m.Reference,
		ReversesEntryID: m.ReversesEntryID,
		ReversedByID:    m.ReversedByID,
		Status:          domain.Posted,
		Lines:           ToDomainJournalLineSlice(lines),
		CreatedAt:       m.CreatedAt.UTC(),
	}
	if m.ReversedByID != nil {
		entry.Status = domain.Reversed
	}
	return entry
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		AccountCode: d.AccountCode,
		Amount:      d.Amount,
		Side:        models.LineSide(d.Side),
		EntryDate:   domain.NormalizeDate(d.EntryDate),
		CreatedAt:   d.CreatedAt,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		AccountCode: m.AccountCode,
		Amount:      m.Amount,
		Side:        domain.Side(m.Side),
		EntryDate:   domain.NormalizeDate(m.EntryDate),
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// ToDomainJournalLineSlice converts a slice of model JournalLines to a slice of domain JournalLines
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}
