package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	cursor := Cursor{
		EntryDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EntryID:   "0190f5c2-0000-7000-8000-000000000001",
		LineID:    "0190f5c2-0000-7000-8000-000000000002",
	}

	token := EncodeToken(cursor)
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, cursor.EntryDate.Equal(decoded.EntryDate), "Entry date should match after decode")
	assert.Equal(t, cursor.EntryID, decoded.EntryID)
	assert.Equal(t, cursor.LineID, decoded.LineID)
}

func TestEncodeToken_TruncatesToDay(t *testing.T) {
	cursor := Cursor{
		EntryDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		EntryID:   "e1",
		LineID:    "l1",
	}
	decoded, err := DecodeToken(EncodeToken(cursor))
	require.NoError(t, err)
	assert.Equal(t, cursor.EntryDate, decoded.EntryDate)
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	missingFields := base64.StdEncoding.EncodeToString([]byte("2024-01-01|e1"))
	_, err = DecodeToken(missingFields)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := base64.StdEncoding.EncodeToString([]byte("notadate|e1|l1"))
	_, err = DecodeToken(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "entry date parse")
}

func TestCursorAfter(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	c := Cursor{EntryDate: day, EntryID: "e2", LineID: "l2"}

	tests := []struct {
		name    string
		date    time.Time
		entryID string
		lineID  string
		want    bool
	}{
		{"later date", day.AddDate(0, 0, 1), "e1", "l1", true},
		{"earlier date", day.AddDate(0, 0, -1), "e9", "l9", false},
		{"same date later entry", day, "e3", "l1", true},
		{"same date earlier entry", day, "e1", "l9", false},
		{"same entry later line", day, "e2", "l3", true},
		{"same position", day, "e2", "l2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.After(tt.date, tt.entryID, tt.lineID))
		})
	}
}
