package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is one resolved time token.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%d:%02d", t.Hour, t.Minute)
}

// Time patterns in priority order. The dash class accepts hyphen, en dash and
// em dash.
var (
	// 9:00 AM - 5:00 PM, 9am-5pm, 9-5pm, 09:00:00-17:00:00
	rangeRe = regexp.MustCompile(`(?i)\b(\d{1,2}):?(\d{2})?(?::\d{2})?\s*([ap]m)?\s*[-–—]\s*(\d{1,2}):?(\d{2})?(?::\d{2})?\s*([ap]m)?\b`)
	// 09:00-17:00
	range24Re = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::\d{2})?\s*[-–—]\s*(\d{1,2}):(\d{2})(?::\d{2})?\b`)
	// 2pm, 2:30 PM
	singleRe = regexp.MustCompile(`(?i)\b(\d{1,2}):?(\d{2})?(?::\d{2})?\s*([ap]m)\b`)
	// 14:00, 14:00:00
	single24Re = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::\d{2})?\b`)
)

// timeSpec is what a search of one line found: a single time or a range.
type timeSpec struct {
	Start TimeOfDay
	End   TimeOfDay
	// Single is set when only one token was found; End is Start+1h.
	Single bool
	// Span is the byte range of the matched substring.
	Span [2]int
	Text string
}

// resolveTime decomposes H[:MM][am|pm] groups into a TimeOfDay.
func resolveTime(hourStr, minuteStr, meridiem string) (TimeOfDay, error) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: hour %q", ErrInvalidTime, hourStr)
	}
	minute := 0
	if minuteStr != "" {
		minute, err = strconv.Atoi(minuteStr)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("%w: minute %q", ErrInvalidTime, minuteStr)
		}
	}
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: minute %d out of range", ErrInvalidTime, minute)
	}

	switch strings.ToLower(meridiem) {
	case "pm":
		if hour > 12 {
			return TimeOfDay{}, fmt.Errorf("%w: %d with PM", ErrInvalidTime, hour)
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return TimeOfDay{}, fmt.Errorf("%w: %d with AM", ErrInvalidTime, hour)
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return TimeOfDay{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidTime, hour)
		}
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// findTime runs the three-tier time search over text. found is false when no
// tier matched; a non-nil error means a tier matched but its tokens were
// malformed.
func findTime(text string) (spec timeSpec, found bool, err error) {
	if m := rangeRe.FindStringSubmatchIndex(text); m != nil {
		return rangeSpec(text, m, 2, 4, 6, 8, 10, 12)
	}
	if m := range24Re.FindStringSubmatchIndex(text); m != nil {
		return rangeSpec(text, m, 2, 4, -1, 6, 8, -1)
	}
	if m := singleRe.FindStringSubmatchIndex(text); m != nil {
		return singleSpec(text, m, 2, 4, 6)
	}
	if m := single24Re.FindStringSubmatchIndex(text); m != nil {
		return singleSpec(text, m, 2, 4, -1)
	}
	return timeSpec{}, false, nil
}

func rangeSpec(text string, m []int, sh, sm, sp, eh, em, ep int) (timeSpec, bool, error) {
	spec := timeSpec{Span: [2]int{m[0], m[1]}, Text: text[m[0]:m[1]]}
	var err error
	spec.Start, err = resolveTime(group(text, m, sh), group(text, m, sm), group(text, m, sp))
	if err != nil {
		return spec, true, err
	}
	spec.End, err = resolveTime(group(text, m, eh), group(text, m, em), group(text, m, ep))
	if err != nil {
		return spec, true, err
	}
	return spec, true, nil
}

func singleSpec(text string, m []int, h, mm, p int) (timeSpec, bool, error) {
	spec := timeSpec{Span: [2]int{m[0], m[1]}, Text: text[m[0]:m[1]], Single: true}
	var err error
	spec.Start, err = resolveTime(group(text, m, h), group(text, m, mm), group(text, m, p))
	if err != nil {
		return spec, true, err
	}
	spec.End = TimeOfDay{Hour: (spec.Start.Hour + 1) % 24, Minute: spec.Start.Minute}
	return spec, true, nil
}

// group returns submatch idx (2*n index into m), or "" when absent.
func group(text string, m []int, idx int) string {
	if idx < 0 || idx+1 >= len(m) || m[idx] < 0 {
		return ""
	}
	return text[m[idx]:m[idx+1]]
}

// on anchors the found time to a calendar date. Ends earlier than the start are
// moved to the following day.
func (s timeSpec) on(y int, mo time.Month, d int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(y, mo, d, s.Start.Hour, s.Start.Minute, 0, 0, loc)
	if s.Single {
		return start, time.Date(y, mo, d, s.Start.Hour+1, s.Start.Minute, 0, 0, loc)
	}
	end := time.Date(y, mo, d, s.End.Hour, s.End.Minute, 0, 0, loc)
	if end.Before(start) {
		end = time.Date(y, mo, d+1, s.End.Hour, s.End.Minute, 0, 0, loc)
	}
	return start, end
}
