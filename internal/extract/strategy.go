package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"covergap/internal/model"
)

// Line is one extraction unit.
type Line struct {
	Number int
	Text   string
}

// Outcome is the result of one strategy attempt on one line. It is one of
// DayOfWeekMatch, AbsoluteDateMatch or NoMatch.
type Outcome interface {
	// Events returns the events the line produced (possibly none).
	Events() []model.Event
	outcome()
}

// DayOfWeekMatch is reported when the line names a weekday. Event is nil when
// no usable time was found next to it.
type DayOfWeekMatch struct {
	Weekday time.Weekday
	Date    time.Time
	Event   *model.Event
}

// AbsoluteDateMatch is reported when the line carries one or more calendar
// dates.
type AbsoluteDateMatch struct {
	Dates []time.Time
	Evts  []model.Event
}

// NoMatch means the strategy does not apply to the line.
type NoMatch struct{}

func (m DayOfWeekMatch) Events() []model.Event {
	if m.Event == nil {
		return nil
	}
	return []model.Event{*m.Event}
}

func (m AbsoluteDateMatch) Events() []model.Event { return m.Evts }
func (NoMatch) Events() []model.Event             { return nil }

func (DayOfWeekMatch) outcome()    {}
func (AbsoluteDateMatch) outcome() {}
func (NoMatch) outcome()           {}

// Strategy attempts extraction from a single line. A non-nil error carries
// recoverable warnings and may accompany a non-NoMatch outcome.
type Strategy interface {
	Name() string
	Attempt(ln Line) (Outcome, error)
}

var dayRe = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tues|thurs|thur|mon|tue|wed|thu|fri|sat|sun)\b`)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// nextWeekday returns the date of the upcoming wd strictly after now's date.
// A weekday equal to today always means next week.
func nextWeekday(now time.Time, wd time.Weekday) (int, time.Month, int) {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	t := time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, now.Location())
	return t.Year(), t.Month(), t.Day()
}

// dayOfWeekStrategy handles "Monday 9am-5pm Inventory" style lines.
type dayOfWeekStrategy struct {
	now func() time.Time
	loc *time.Location
}

func (dayOfWeekStrategy) Name() string { return "day_of_week" }

func (s dayOfWeekStrategy) Attempt(ln Line) (Outcome, error) {
	days := dayRe.FindAllStringSubmatchIndex(ln.Text, -1)
	if len(days) == 0 {
		return NoMatch{}, nil
	}
	dayName := ln.Text[days[0][2]:days[0][3]]
	wd := weekdayNames[strings.ToLower(dayName)]

	var spans [][2]int
	for _, d := range days {
		spans = append(spans, [2]int{d[0], d[1]})
	}
	_, dateSpans := findDates(ln.Text)
	spans = append(spans, dateSpans...)
	searchText := mask(ln.Text, spans...)

	y, mo, d := nextWeekday(s.now().In(s.loc), wd)
	match := DayOfWeekMatch{Weekday: wd, Date: time.Date(y, mo, d, 0, 0, 0, 0, s.loc)}

	spec, found, err := findTime(searchText)
	if err != nil {
		return match, &LineError{Line: ln.Number, Text: ln.Text, Token: spec.Text, Err: err}
	}
	if !found {
		return match, nil
	}

	start, end := spec.on(y, mo, d, s.loc)

	title := cleanTitle(mask(ln.Text, append(spans, spec.Span)...))
	if len([]rune(title)) < 2 {
		title = fmt.Sprintf("%s %s - %s", dayName, spec.Start, spec.End)
	}

	match.Event = &model.Event{Title: title, Start: start, End: end}
	return match, nil
}

// absoluteDateStrategy handles lines carrying explicit calendar dates.
type absoluteDateStrategy struct {
	loc *time.Location
	// dateOnly lets a dated line without any time become a one-hour event at
	// midnight.
	dateOnly bool
}

func (absoluteDateStrategy) Name() string { return "absolute_date" }

func (s absoluteDateStrategy) Attempt(ln Line) (Outcome, error) {
	dates, dateSpans := findDates(ln.Text)
	if len(dates) == 0 {
		return NoMatch{}, nil
	}
	searchText := mask(ln.Text, dateSpans...)

	spec, found, terr := findTime(searchText)
	if terr != nil {
		return AbsoluteDateMatch{}, &LineError{Line: ln.Number, Text: ln.Text, Token: spec.Text, Err: terr}
	}
	if !found && s.dateOnly {
		spec = timeSpec{Single: true, Span: [2]int{0, 0}}
		found = true
	}

	var (
		match AbsoluteDateMatch
		errs  []error
	)
	for _, dm := range dates {
		y, mo, d, err := dm.date()
		if err != nil {
			errs = append(errs, &LineError{Line: ln.Number, Text: ln.Text, Token: dm.Text, Err: err})
			continue
		}
		match.Dates = append(match.Dates, time.Date(y, mo, d, 0, 0, 0, 0, s.loc))
		if !found {
			continue
		}

		start, end := spec.on(y, mo, d, s.loc)
		match.Evts = append(match.Evts, model.Event{
			Title: s.title(ln.Text, dm, dateSpans, spec, y, mo, d),
			Start: start,
			End:   end,
		})
	}
	return match, errors.Join(errs...)
}

// title is the text before the date with dates and times removed, or a
// synthesized label when nothing precedes it.
func (s absoluteDateStrategy) title(text string, dm dateMatch, dateSpans [][2]int, spec timeSpec, y int, mo time.Month, d int) string {
	stripped := mask(text, append(append([][2]int{}, dateSpans...), spec.Span)...)
	if t := cleanTitle(stripped[:dm.Span[0]]); t != "" {
		return t
	}
	return fmt.Sprintf("Event on %d/%d/%d", int(mo), d, y)
}

const titleCutset = " \t,;:|@-–—"

// cleanTitle collapses whitespace and trims residual separators.
func cleanTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, titleCutset)
}
