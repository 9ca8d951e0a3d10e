package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
)

// DefaultMinorUnitScale is the number of decimal places a line amount may carry
// when the builder is not configured otherwise.
const DefaultMinorUnitScale int32 = 2

// DraftLine is a proposed line of a draft entry.
type DraftLine struct {
	AccountCode string
	Amount      decimal.Decimal
	Side        Side
}

// DraftEntry is an uncommitted, immutable candidate journal entry.
// It can only be produced by EntryBuilder.Build.
type DraftEntry struct {
	date        time.Time
	description string
	reference   string
	lines       []DraftLine
}

// Date returns the entry date, or the zero time when the poster should use today.
func (d *DraftEntry) Date() time.Time { return d.date }

func (d *DraftEntry) Description() string { return d.description }

func (d *DraftEntry) Reference() string { return d.reference }

// Lines returns a copy of the draft's lines.
func (d *DraftEntry) Lines() []DraftLine {
	out := make([]DraftLine, len(d.lines))
	copy(out, d.lines)
	return out
}

// EntryBuilder stages lines for a new journal entry.
type EntryBuilder struct {
	scale int32
	lines []DraftLine
	err   error
}

// BuilderOption configures an EntryBuilder.
type BuilderOption func(*EntryBuilder)

// WithMinorUnitScale sets how many decimal places a line amount may carry.
func WithMinorUnitScale(scale int32) BuilderOption {
	return func(b *EntryBuilder) {
		if scale >= 0 {
			b.scale = scale
		}
	}
}

// NewEntryBuilder creates an empty builder.
func NewEntryBuilder(opts ...BuilderOption) *EntryBuilder {
	b := &EntryBuilder{scale: DefaultMinorUnitScale}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddLine accumulates a proposed line. The amount must be strictly positive and
// representable in the builder's minor unit.
func (b *EntryBuilder) AddLine(accountCode string, amount decimal.Decimal, side Side) error {
	accountCode = strings.TrimSpace(accountCode)
	if accountCode == "" {
		return fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}
	if !side.IsValid() {
		return fmt.Errorf("%w: invalid side %q for account %s", apperrors.ErrValidation, side, accountCode)
	}
	if err := CheckAmount(accountCode, amount, b.scale); err != nil {
		return err
	}
	b.lines = append(b.lines, DraftLine{AccountCode: accountCode, Amount: amount, Side: side})
	return nil
}

// Debit adds a debit line and returns the builder for chaining. The first
// failure is kept and reported by Build.
func (b *EntryBuilder) Debit(accountCode string, amount decimal.Decimal) *EntryBuilder {
	if b.err == nil {
		b.err = b.AddLine(accountCode, amount, Debit)
	}
	return b
}

// Credit adds a credit line and returns the builder for chaining.
func (b *EntryBuilder) Credit(accountCode string, amount decimal.Decimal) *EntryBuilder {
	if b.err == nil {
		b.err = b.AddLine(accountCode, amount, Credit)
	}
	return b
}

// Build produces an immutable draft. The date keeps its calendar day in its own
// location (see NormalizeDate). A zero date is left for the poster to fill from
// its clock.
func (b *EntryBuilder) Build(date time.Time, description, reference string) (*DraftEntry, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.lines) < 2 {
		return nil, &apperrors.EmptyEntryError{Lines: len(b.lines)}
	}
	if !date.IsZero() {
		date = NormalizeDate(date)
	}
	lines := make([]DraftLine, len(b.lines))
	copy(lines, b.lines)
	return &DraftEntry{
		date:        date,
		description: strings.TrimSpace(description),
		reference:   strings.TrimSpace(reference),
		lines:       lines,
	}, nil
}

// CheckAmount validates a single line amount against the minor-unit scale.
func CheckAmount(accountCode string, amount decimal.Decimal, scale int32) error {
	if !amount.IsPositive() {
		return &apperrors.InvalidAmountError{AccountCode: accountCode, Amount: amount, Reason: "amount must be greater than zero"}
	}
	if !amount.Equal(amount.Truncate(scale)) {
		return &apperrors.InvalidAmountError{
			AccountCode: accountCode,
			Amount:      amount,
			Reason:      fmt.Sprintf("amount has more than %d decimal places", scale),
		}
	}
	return nil
}
