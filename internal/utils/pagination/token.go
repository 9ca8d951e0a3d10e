package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// Cursor is the keyset position of a journal line in the activity order
// (entry date, entry id, line id).
type Cursor struct {
	EntryDate time.Time
	EntryID   string
	LineID    string
}

// EncodeToken creates a base64 encoded token pointing at the last line of a page.
func EncodeToken(c Cursor) string {
	tokenStr := strings.Join([]string{c.EntryDate.UTC().Format(dateFormat), c.EntryID, c.LineID}, "|")
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded token back into a cursor.
func DecodeToken(token string) (Cursor, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.Split(string(decodedBytes), "|")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	entryDate, err := time.Parse(dateFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (entry date parse): %w", err)
	}

	return Cursor{EntryDate: entryDate, EntryID: parts[1], LineID: parts[2]}, nil
}

// After reports whether the position (date, entryID, lineID) sorts strictly after c.
func (c Cursor) After(date time.Time, entryID, lineID string) bool {
	if !date.Equal(c.EntryDate) {
		return date.After(c.EntryDate)
	}
	if entryID != c.EntryID {
		return entryID > c.EntryID
	}
	return lineID > c.LineID
}
