package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalance returns the side on which an account of this type increases.
// ASSET and EXPENSE are debit-normal; LIABILITY, EQUITY and REVENUE are credit-normal.
func (t AccountType) NormalBalance() Side {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// Account is a chart-of-accounts entry. Code is the account's identity.
type Account struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Type     AccountType     `json:"type"`
	SubType  string          `json:"subType,omitempty"`
	Category string          `json:"category,omitempty"`
	Balance  decimal.Decimal `json:"balance"` // Running balance under the normal-balance convention
	Timestamps
}

// NormalBalance returns the account's normal side.
func (a Account) NormalBalance() Side {
	return a.Type.NormalBalance()
}
