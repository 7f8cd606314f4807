package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	appLog "covergap/internal/log"
)

var delimitedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04PM",
	"2006-01-02",
}

// ReadDelimited reads "Title, Start, End" rows. The first row is a header and
// is skipped, as are rows with fewer than three fields. Dates that match none
// of the accepted layouts leave the value empty so that Parse drops the row.
func ReadDelimited(r io.Reader, loc *time.Location) ([]Record, error) {
	if loc == nil {
		loc = time.Local
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []Record
	lineNum := 0
	for {
		row, err := reader.Read()
		lineNum++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading delimited input at line %d: %w", lineNum, err)
		}
		if lineNum == 1 || len(row) < 3 {
			continue
		}

		rec := Record{Title: strings.TrimSpace(row[0])}
		rec.Start.Time = parseDelimitedTime(row[1], loc)
		rec.End.Time = parseDelimitedTime(row[2], loc)
		if rec.Start.Time.IsZero() || rec.End.Time.IsZero() {
			appLog.Warn("delimited row has unparseable date", "line", lineNum, "title", rec.Title)
		}
		if len(row) > 3 {
			rec.Description = strings.TrimSpace(row[3])
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseDelimitedTime(value string, loc *time.Location) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range delimitedLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
