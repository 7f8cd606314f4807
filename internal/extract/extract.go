// Package extract reconstructs events from noisy, line-oriented text such as
// OCR output or text pulled out of PDF and Word documents.
//
// Each line is an independent unit. Strategies are tried from most to least
// specific and the first one that applies claims the line:
//
//   - a weekday name ("Monday 9am-5pm Inventory") resolves to the upcoming
//     instance of that weekday, never today;
//   - explicit dates ("1/15/2024", "Jan 15, 2024", "2024-01-15") are used as
//     given;
//   - anything else is ignored.
//
// Malformed tokens are logged and skipped. Extraction never fails; an empty
// result is for the caller to report (see RequireEvents).
package extract

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"covergap/internal/clock"
	appLog "covergap/internal/log"
	"covergap/internal/metrics"
	"covergap/internal/model"
)

// Options configures an Extractor. The zero value is usable.
type Options struct {
	// Location is the timezone events are created in. Defaults to time.Local.
	Location *time.Location
	// Clock anchors weekday resolution. Defaults to the system clock.
	Clock clock.Clock
	// DateOnly makes dated lines without a time produce a one-hour event at
	// midnight instead of nothing.
	DateOnly bool
}

// Extractor runs the strategy cascade over text. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	strategies []Strategy
}

// Report is the detailed result of one extraction run.
type Report struct {
	Events   []model.Event
	Warnings []*LineError
	// Lines counts the non-blank lines examined.
	Lines int
}

// New builds an Extractor from opts.
func New(opts Options) *Extractor {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Extractor{
		strategies: []Strategy{
			dayOfWeekStrategy{now: clk.Now, loc: loc},
			absoluteDateStrategy{loc: loc, dateOnly: opts.DateOnly},
		},
	}
}

// Extract returns the events found in text, or an empty slice.
func (x *Extractor) Extract(text string) []model.Event {
	return x.ExtractReport(text).Events
}

// ExtractReport is Extract with per-line warnings.
func (x *Extractor) ExtractReport(text string) Report {
	rep := Report{Events: make([]model.Event, 0)}

	for i, raw := range strings.Split(text, "\n") {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}
		rep.Lines++
		ln := Line{Number: i + 1, Text: line}

		out, warnings := x.attempt(ln)
		for _, w := range warnings {
			if w.Line == 0 {
				w.Line, w.Text = ln.Number, ln.Text
			}
			appLog.Warn("extract: skipping malformed token", "line", w.Line, "token", w.Token, "err", w.Err)
			metrics.ExtractWarningsTotal.WithLabelValues(warningKind(w)).Inc()
		}
		rep.Warnings = append(rep.Warnings, warnings...)

		switch o := out.(type) {
		case DayOfWeekMatch:
			metrics.ExtractLinesTotal.WithLabelValues("day_of_week").Inc()
			if o.Event == nil {
				appLog.Debug("extract: weekday without time", "line", ln.Number, "weekday", o.Weekday.String())
			}
		case AbsoluteDateMatch:
			metrics.ExtractLinesTotal.WithLabelValues("absolute_date").Inc()
		case NoMatch:
			metrics.ExtractLinesTotal.WithLabelValues("none").Inc()
		}

		evs := out.Events()
		rep.Events = append(rep.Events, evs...)
		metrics.ExtractEventsTotal.Add(float64(len(evs)))
	}

	appLog.Debug("extract completed", "lines", rep.Lines, "events", len(rep.Events), "warnings", len(rep.Warnings))
	return rep
}

// attempt runs the cascade on one line; the first strategy that does not
// report NoMatch wins.
func (x *Extractor) attempt(ln Line) (Outcome, []*LineError) {
	var warnings []*LineError
	for _, s := range x.strategies {
		out, err := s.Attempt(ln)
		warnings = append(warnings, lineErrors(err)...)
		if _, skip := out.(NoMatch); skip {
			continue
		}
		appLog.Debug("extract: line claimed", "line", ln.Number, "strategy", s.Name(), "events", len(out.Events()))
		return out, warnings
	}
	return NoMatch{}, warnings
}

// normalizeLine maps exotic whitespace (NBSP, thin spaces from PDF text
// layers) to plain spaces and trims the result.
func normalizeLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if r != ' ' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func warningKind(w *LineError) string {
	switch {
	case errors.Is(w.Err, ErrInvalidDate):
		return "date"
	case errors.Is(w.Err, ErrInvalidTime):
		return "time"
	default:
		return "unknown"
	}
}
