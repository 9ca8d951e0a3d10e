package dto

import (
	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code        string             `json:"code" validate:"required,max=64"`
	Name        string             `json:"name" validate:"required,max=255"`
	AccountType domain.AccountType `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	SubType     string             `json:"subType" validate:"omitempty,max=64"`  // Optional
	Category    string             `json:"category" validate:"omitempty,max=64"` // Optional
}
