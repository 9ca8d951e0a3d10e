package domain

import "time"

// Timestamps holds creation and last-update times for ledger records.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeDate returns the calendar day of t, read in t's own location, as
// midnight UTC. 2024-01-01 00:00 +05:00 is 2024-01-01. Entry dates are
// compared as days, so every date entering the ledger passes through here.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
