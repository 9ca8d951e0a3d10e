package models

import "time"

// Timestamps holds the creation and update columns shared by ledger tables.
type Timestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
