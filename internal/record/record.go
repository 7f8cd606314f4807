package record

import (
	"time"

	"covergap/internal/clock"
	appLog "covergap/internal/log"
	"covergap/internal/metrics"
	"covergap/internal/model"
)

// UntitledEvent is the title given to records without one.
const UntitledEvent = "Untitled Event"

// DateParts is a broken-down timestamp as exposed by calendar decoders.
// Month is 1-based. Zero fields take defaults: current year, January, the
// 1st, 00:00.
type DateParts struct {
	Year   int `json:"year,omitempty"`
	Month  int `json:"month,omitempty"`
	Day    int `json:"day,omitempty"`
	Hour   int `json:"hour,omitempty"`
	Minute int `json:"minute,omitempty"`
}

// DateValue is either a directly usable timestamp or a set of parts. Time
// wins when both are present.
type DateValue struct {
	Time  time.Time  `json:"time,omitempty"`
	Parts *DateParts `json:"parts,omitempty"`
}

// At wraps a direct timestamp.
func At(t time.Time) DateValue {
	return DateValue{Time: t}
}

// Record is one externally decoded calendar entry.
type Record struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       DateValue `json:"start"`
	End         DateValue `json:"end"`
}

// Options controls how parts are turned into timestamps.
type Options struct {
	// Location for part-based dates. Defaults to time.Local.
	Location *time.Location
	// Clock supplies the default year. Defaults to the system clock.
	Clock clock.Clock
}

// Parse converts records into events. Records whose start or end cannot be
// resolved to a valid calendar date are dropped, never reported as errors.
func Parse(records []Record, opts Options) []model.Event {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	year := opts.Clock.Now().In(opts.Location).Year()

	events := make([]model.Event, 0, len(records))
	for i, r := range records {
		start, okStart := r.Start.resolve(year, opts.Location)
		end, okEnd := r.End.resolve(year, opts.Location)
		if !okStart || !okEnd {
			appLog.Debug("record dropped: invalid date", "index", i, "title", r.Title)
			metrics.ParserRecordsDropped.Inc()
			continue
		}

		title := r.Title
		if title == "" {
			title = UntitledEvent
		}
		events = append(events, model.Event{
			Title:       title,
			Start:       start,
			End:         end,
			Description: r.Description,
		})
	}

	metrics.ParserRecordsTotal.Add(float64(len(events)))
	return events
}

func (v DateValue) resolve(defaultYear int, loc *time.Location) (time.Time, bool) {
	if !v.Time.IsZero() {
		return v.Time, true
	}
	if v.Parts == nil {
		return time.Time{}, false
	}
	return v.Parts.resolve(defaultYear, loc)
}

func (p DateParts) resolve(defaultYear int, loc *time.Location) (time.Time, bool) {
	year, month, day := p.Year, p.Month, p.Day
	if year == 0 {
		year = defaultYear
	}
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	if month < 1 || month > 12 || day < 1 || p.Hour < 0 || p.Hour > 23 || p.Minute < 0 || p.Minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, p.Hour, p.Minute, 0, 0, loc)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); treat that as invalid.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
