package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

// CreateLineRequest defines a single proposed journal line.
type CreateLineRequest struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	Amount      decimal.Decimal `json:"amount"` // Checked by the entry builder, not by tags
	Side        domain.Side     `json:"side" validate:"required,oneof=DEBIT CREDIT"`
}

// CreateEntryRequest defines the data a host sends to post a journal entry.
type CreateEntryRequest struct {
	Date        time.Time           `json:"date"` // Optional; defaults to today
	Description string              `json:"description" validate:"max=1024"`
	Reference   string              `json:"reference" validate:"omitempty,max=255"`
	Lines       []CreateLineRequest `json:"lines" validate:"dive"`
}

// ToDraft stages the request's lines through an EntryBuilder.
func (r CreateEntryRequest) ToDraft(opts ...domain.BuilderOption) (*domain.DraftEntry, error) {
	b := domain.NewEntryBuilder(opts...)
	for _, l := range r.Lines {
		if err := b.AddLine(l.AccountCode, l.Amount, l.Side); err != nil {
			return nil, err
		}
	}
	return b.Build(r.Date, r.Description, r.Reference)
}
