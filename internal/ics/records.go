package ics

import (
	appLog "covergap/internal/log"
	"covergap/internal/record"
)

// ToRecords converts timed occurrences into structured records. All-day
// occurrences mark days rather than staffed hours and are left out.
func ToRecords(occurrences []Occurrence) []record.Record {
	records := make([]record.Record, 0, len(occurrences))
	skipped := 0
	for _, o := range occurrences {
		if o.AllDay {
			skipped++
			continue
		}
		records = append(records, record.Record{
			Title:       o.Summary,
			Description: o.Description,
			Start:       record.At(o.Start),
			End:         record.At(o.End),
		})
	}
	if skipped > 0 {
		appLog.Debug("all-day occurrences skipped", "count", skipped)
	}
	return records
}
