package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "covergap/internal/log"
)

const defaultMaxOccurrences = 5000

// Occurrence is one concrete instance of a (possibly recurring) event.
type Occurrence struct {
	SourceID    string
	UID         string
	Summary     string
	Description string
	AllDay      bool
	Start       time.Time
	End         time.Time
}

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// Location that occurrences are converted to. Defaults to time.Local.
	Location *time.Location

	// Inclusive window; occurrences overlapping it are kept.
	RangeStart time.Time
	RangeEnd   time.Time

	// Per-series cap. Defaults to 5000.
	MaxOccurrences int
}

// ExpandResult holds occurrences sorted by start time, then UID.
type ExpandResult struct {
	Occurrences []Occurrence
	// Truncated lists UIDs whose series hit MaxOccurrences.
	Truncated []string
}

// Expand turns decoded events into concrete occurrences inside the window.
// RRULE series honour EXDATE, and RECURRENCE-ID overrides replace the
// instance they name; when several overrides name the same instance the
// highest SEQUENCE wins.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: range end is before range start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	overrides := make(map[string][]ParsedEvent)
	var series []ParsedEvent
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		series = append(series, ev)
	}

	for _, ev := range series {
		var (
			occ    []Occurrence
			capped bool
		)
		if ev.RRule == "" {
			occ = expandSingle(ev, cfg)
		} else {
			occ, capped = expandSeries(ev, overrides[ev.UID], cfg)
		}
		result.Occurrences = append(result.Occurrences, occ...)
		if capped {
			result.Truncated = append(result.Truncated, ev.UID)
			appLog.Warn("recurrence truncated", "uid", ev.UID, "cap", cfg.MaxOccurrences)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		a, b := result.Occurrences[i], result.Occurrences[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.UID < b.UID
	})
	return result, nil
}

func expandSingle(ev ParsedEvent, cfg ExpandConfig) []Occurrence {
	if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []Occurrence{newOccurrence(ev, ev.Start, ev.End, cfg.Location)}
}

func expandSeries(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	rule, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Warn("invalid RRULE, series skipped", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		return nil, false
	}
	rule.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	duration := ev.End.Sub(ev.Start)
	// Widen the lower bound so instances that started before the window but
	// still run into it are kept.
	starts := set.Between(
		cfg.RangeStart.Add(-duration).In(ev.Start.Location()),
		cfg.RangeEnd.In(ev.Start.Location()),
		true,
	)
	capped := false
	if len(starts) > cfg.MaxOccurrences {
		starts = starts[:cfg.MaxOccurrences]
		capped = true
	}

	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		end := start.Add(duration)
		if ev.AllDay {
			start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			end = start.AddDate(0, 0, max(1, int(duration.Hours()/24)))
		}
		if o, ok := overrideFor(overrides, start); ok {
			out = append(out, newOccurrence(o, o.Start, o.End, cfg.Location))
			continue
		}
		out = append(out, newOccurrence(ev, start, end, cfg.Location))
	}
	return out, capped
}

func overrideFor(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	var (
		best  ParsedEvent
		found bool
	)
	for _, o := range overrides {
		if !o.RecurrenceID.Equal(start) {
			continue
		}
		if !found || o.Sequence > best.Sequence {
			best, found = o, true
		}
	}
	return best, found
}

func newOccurrence(ev ParsedEvent, start, end time.Time, loc *time.Location) Occurrence {
	return Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		AllDay:      ev.AllDay,
		Start:       start.In(loc),
		End:         end.In(loc),
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
