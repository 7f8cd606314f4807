// Package filter narrows an event list by text, weekday and hour window.
package filter

import (
	"slices"
	"strings"
	"time"

	"covergap/internal/model"
)

// Criteria selects events. Start from All; the zero value only keeps events
// touching hour 0.
type Criteria struct {
	// Search matches title or description, case-insensitive.
	Search string
	// Weekdays of the event start; empty keeps every day.
	Weekdays []time.Weekday
	// Inclusive hour window, 0-23.
	StartHour int
	EndHour   int
	// Location in which weekdays and hours are read. Defaults to time.Local.
	Location *time.Location
}

// All returns criteria that match every event.
func All() Criteria {
	return Criteria{StartHour: 0, EndHour: 23}
}

// Apply returns the events matching c, preserving order. The input slice is
// not modified.
func Apply(events []model.Event, c Criteria) []model.Event {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	term := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) {
			continue
		}
		start, end := e.Start.In(loc), e.End.In(loc)
		if len(c.Weekdays) > 0 && !slices.Contains(c.Weekdays, start.Weekday()) {
			continue
		}
		if !c.inWindow(start.Hour(), end.Hour()) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// inWindow keeps events that start or end inside the window, or span it.
func (c Criteria) inWindow(startHour, endHour int) bool {
	within := func(h int) bool { return h >= c.StartHour && h <= c.EndHour }
	return within(startHour) || within(endHour) ||
		(startHour <= c.StartHour && endHour >= c.EndHour)
}

// ParseWeekdays reads names such as "mon", "Tuesday" or "sat". Unknown names
// are reported in the second return value.
func ParseWeekdays(names []string) ([]time.Weekday, []string) {
	var (
		days    []time.Weekday
		unknown []string
	)
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if len(key) < 3 {
			unknown = append(unknown, n)
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), key) {
				days = append(days, d)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, n)
		}
	}
	return days, unknown
}
