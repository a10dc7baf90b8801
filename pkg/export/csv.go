// Package export renders a user's journal as a CSV file.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/db"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"message", "submitted_at"}

// BuildCSV writes one record per entry, in the given order. Timestamps are
// RFC 3339 in UTC.
func BuildCSV(entries []db.JournalEntry) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		record := []string{entry.Message, entry.SubmittedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Filename(now time.Time) string {
	return fmt.Sprintf("journal-%s.csv", now.Format("20060102"))
}
