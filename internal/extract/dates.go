package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// 1/15/2024, 01-15-24
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})\b`)
	// Jan 15, 2024 / January 15th 2024 / Sept. 3 2025
	monthDateRe = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	// 2024-01-15, 2024-01-15T09:00
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})(?:T|\b)`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

type dateKind int

const (
	dateNumeric dateKind = iota
	dateMonthName
	dateISO
)

// dateMatch is one date-looking substring of a line.
type dateMatch struct {
	Span   [2]int
	Text   string
	kind   dateKind
	groups [3]string
}

// findDates returns the date substrings of text ordered by position, with
// repeated texts reported once, and the spans of every non-overlapping match
// including repeats. Overlapping matches keep the earliest (then longest) one.
func findDates(text string) (dates []dateMatch, spans [][2]int) {
	var all []dateMatch
	collect := func(re *regexp.Regexp, kind dateKind) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			all = append(all, dateMatch{
				Span:   [2]int{m[0], m[1]},
				Text:   text[m[0]:m[1]],
				kind:   kind,
				groups: [3]string{group(text, m, 2), group(text, m, 4), group(text, m, 6)},
			})
		}
	}
	collect(numericDateRe, dateNumeric)
	collect(monthDateRe, dateMonthName)
	collect(isoDateRe, dateISO)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Span[0] != all[j].Span[0] {
			return all[i].Span[0] < all[j].Span[0]
		}
		return all[i].Span[1] > all[j].Span[1]
	})

	dates = make([]dateMatch, 0, len(all))
	spans = make([][2]int, 0, len(all))
	seen := make(map[string]bool, len(all))
	lastEnd := -1
	for _, d := range all {
		if d.Span[0] < lastEnd {
			continue
		}
		lastEnd = d.Span[1]
		spans = append(spans, d.Span)
		key := strings.ToLower(strings.TrimSuffix(d.Text, "T"))
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, d)
	}
	return dates, spans
}

// date resolves the match into a calendar date, rejecting impossible ones
// such as 2/30/2024.
func (d dateMatch) date() (year int, month time.Month, day int, err error) {
	switch d.kind {
	case dateNumeric:
		a, _ := strconv.Atoi(d.groups[0])
		b, _ := strconv.Atoi(d.groups[1])
		year, err = parseYear(d.groups[2])
		if err != nil {
			return 0, 0, 0, err
		}
		// US order first; day-first when the leading field cannot be a month.
		m, dd := a, b
		if a > 12 && b <= 12 {
			m, dd = b, a
		}
		month, day = time.Month(m), dd
	case dateMonthName:
		key := strings.ToLower(d.groups[0])
		if len(key) > 3 {
			key = key[:3]
		}
		month = monthNames[key]
		day, _ = strconv.Atoi(d.groups[1])
		year, _ = strconv.Atoi(d.groups[2])
	case dateISO:
		year, _ = strconv.Atoi(d.groups[0])
		m, _ := strconv.Atoi(d.groups[1])
		month = time.Month(m)
		day, _ = strconv.Atoi(d.groups[2])
	}

	if !validDate(year, month, day) {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDate, d.Text)
	}
	return year, month, day, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidDate, s)
	}
	switch len(s) {
	case 2:
		return 2000 + y, nil
	case 4:
		return y, nil
	default:
		return 0, fmt.Errorf("%w: year %q", ErrInvalidDate, s)
	}
}

func validDate(y int, m time.Month, d int) bool {
	if m < time.January || m > time.December || d < 1 {
		return false
	}
	// Day 0 of the next month is the last day of m.
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return d <= last
}

// mask blanks the given byte spans so later pattern searches skip them while
// keeping every other index stable.
func mask(text string, spans ...[2]int) string {
	b := []byte(text)
	for _, s := range spans {
		for i := s[0]; i < s[1] && i < len(b); i++ {
			b[i] = ' '
		}
	}
	return string(b)
}
