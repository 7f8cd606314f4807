package extract_test

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covergap/internal/clock"
	"covergap/internal/extract"
	appLog "covergap/internal/log"
	"covergap/internal/model"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// Wednesday, 14 October 2026.
var now = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

func newExtractor(dateOnly bool) *extract.Extractor {
	return extract.New(extract.Options{
		Location: time.UTC,
		Clock:    clock.NewFixed(now),
		DateOnly: dateOnly,
	})
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestExtract(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected []model.Event
	}{
		"DayOfWeek_RangeWithMeridiem": {
			input: "Monday 9:00 AM - 5:00 PM Inventory",
			expected: []model.Event{
				{Title: "Inventory", Start: at(2026, 10, 19, 9, 0), End: at(2026, 10, 19, 17, 0)},
			},
		},
		"DayOfWeek_SingleTimeIsOneHour": {
			input: "Tuesday 2pm Team Sync",
			expected: []model.Event{
				{Title: "Team Sync", Start: at(2026, 10, 20, 14, 0), End: at(2026, 10, 20, 15, 0)},
			},
		},
		"DayOfWeek_TodayRollsToNextWeek": {
			input: "Wednesday 10:00-11:00 Standup",
			expected: []model.Event{
				{Title: "Standup", Start: at(2026, 10, 21, 10, 0), End: at(2026, 10, 21, 11, 0)},
			},
		},
		"DayOfWeek_OvernightEndsNextDay": {
			input: "Fri 10pm-6am Night shift",
			expected: []model.Event{
				{Title: "Night shift", Start: at(2026, 10, 16, 22, 0), End: at(2026, 10, 17, 6, 0)},
			},
		},
		"DayOfWeek_EnDashAndNBSP": {
			input: "MONDAY\u00a09am – 5pm\u00a0Inventory",
			expected: []model.Event{
				{Title: "Inventory", Start: at(2026, 10, 19, 9, 0), End: at(2026, 10, 19, 17, 0)},
			},
		},
		"DayOfWeek_Bare24HourSingle": {
			input: "Thu 14:30 Delivery",
			expected: []model.Event{
				{Title: "Delivery", Start: at(2026, 10, 15, 14, 30), End: at(2026, 10, 15, 15, 30)},
			},
		},
		"DayOfWeek_SynthesizedTitle": {
			input: "Sunday 9am",
			expected: []model.Event{
				{Title: "Sunday 9:00 - 10:00", Start: at(2026, 10, 18, 9, 0), End: at(2026, 10, 18, 10, 0)},
			},
		},
		"DayOfWeek_TitleBeforeDay": {
			input: "Front desk - Sat 8am-12pm",
			expected: []model.Event{
				{Title: "Front desk", Start: at(2026, 10, 17, 8, 0), End: at(2026, 10, 17, 12, 0)},
			},
		},
		"DayOfWeek_WithoutTimeEmitsNothing": {
			input:    "Saturday inventory 1/15/2024",
			expected: []model.Event{},
		},
		"AbsoluteDate_TitlePrecedesDate": {
			input: "Inventory count 1/15/2024 9am-5pm",
			expected: []model.Event{
				{Title: "Inventory count", Start: at(2024, 1, 15, 9, 0), End: at(2024, 1, 15, 17, 0)},
			},
		},
		"AbsoluteDate_NothingBeforeDateSynthesizesTitle": {
			input: "Jan 20, 2025 2:30 PM Review",
			expected: []model.Event{
				{Title: "Event on 1/20/2025", Start: at(2025, 1, 20, 14, 30), End: at(2025, 1, 20, 15, 30)},
			},
		},
		"AbsoluteDate_ISOWith24HourRange": {
			input: "2024-03-15 09:00-17:00",
			expected: []model.Event{
				{Title: "Event on 3/15/2024", Start: at(2024, 3, 15, 9, 0), End: at(2024, 3, 15, 17, 0)},
			},
		},
		"AbsoluteDate_DayFirstFallback": {
			input: "15/01/2024 10am Meeting",
			expected: []model.Event{
				{Title: "Event on 1/15/2024", Start: at(2024, 1, 15, 10, 0), End: at(2024, 1, 15, 11, 0)},
			},
		},
		"AbsoluteDate_RepeatedDateIsNotATime": {
			input:    "Shift 01-15-2024 (01-15-2024)",
			expected: []model.Event{},
		},
		"DayOfWeek_RepeatedDateIsNotATime": {
			input:    "Monday 01-15-2024 and 01-15-2024",
			expected: []model.Event{},
		},
		"AbsoluteDate_ISODateTime": {
			input: "Shift 2024-01-15T09:00",
			expected: []model.Event{
				{Title: "Shift", Start: at(2024, 1, 15, 9, 0), End: at(2024, 1, 15, 10, 0)},
			},
		},
		"DayOfWeek_24HourRangeWithSeconds": {
			input: "Mon 09:00:00-17:00:00 Ops",
			expected: []model.Event{
				{Title: "Ops", Start: at(2026, 10, 19, 9, 0), End: at(2026, 10, 19, 17, 0)},
			},
		},
		"AbsoluteDate_WithoutTimeEmitsNothing": {
			input:    "Invoice due 3/1/2025",
			expected: []model.Event{},
		},
		"NoRecognizableTokens": {
			input:    "Lorem ipsum dolor sit amet\n\n~~ scanned page 3 ~~\n",
			expected: []model.Event{},
		},
		"MultipleLinesIndependent": {
			input: "Monday 9am-5pm Opening\nrandom noise\nTuesday 1pm-9pm Closing",
			expected: []model.Event{
				{Title: "Opening", Start: at(2026, 10, 19, 9, 0), End: at(2026, 10, 19, 17, 0)},
				{Title: "Closing", Start: at(2026, 10, 20, 13, 0), End: at(2026, 10, 20, 21, 0)},
			},
		},
	}

	x := newExtractor(false)
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := x.Extract(tc.input)
			require.NotNil(t, got)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExtract_MultipleDatesShareTime(t *testing.T) {
	x := newExtractor(false)

	got := x.Extract("Audit 1/15/2024 and 1/16/2024 8am-4pm")

	require.Len(t, got, 2)
	assert.Equal(t, at(2024, 1, 15, 8, 0), got[0].Start)
	assert.Equal(t, at(2024, 1, 15, 16, 0), got[0].End)
	assert.Equal(t, at(2024, 1, 16, 8, 0), got[1].Start)
	assert.Equal(t, at(2024, 1, 16, 16, 0), got[1].End)
	assert.Equal(t, "Audit", got[0].Title)
}

func TestExtract_DateOnlyDefaultsToMidnight(t *testing.T) {
	x := newExtractor(true)

	got := x.Extract("Invoice due 3/1/2025")

	require.Len(t, got, 1)
	assert.Equal(t, "Invoice due", got[0].Title)
	assert.Equal(t, at(2025, 3, 1, 0, 0), got[0].Start)
	assert.Equal(t, at(2025, 3, 1, 1, 0), got[0].End)
}

func TestExtractReport_MalformedTokensAreSkipped(t *testing.T) {
	x := newExtractor(false)

	rep := x.ExtractReport("Thursday 25:00-26:00 Broken\nShift 2/30/2024 9am-5pm\nMonday 9am-5pm Inventory")

	require.Len(t, rep.Events, 1)
	assert.Equal(t, "Inventory", rep.Events[0].Title)
	assert.Equal(t, 3, rep.Lines)
	require.Len(t, rep.Warnings, 2)

	assert.Equal(t, 1, rep.Warnings[0].Line)
	assert.True(t, errors.Is(rep.Warnings[0], extract.ErrInvalidTime))
	assert.Equal(t, 2, rep.Warnings[1].Line)
	assert.True(t, errors.Is(rep.Warnings[1], extract.ErrInvalidDate))
}

func TestRequireEvents(t *testing.T) {
	assert.ErrorIs(t, extract.RequireEvents(nil), extract.ErrNoEvents)
	assert.NoError(t, extract.RequireEvents([]model.Event{{Title: "x"}}))
}

func TestExtract_ConcurrentUse(t *testing.T) {
	x := newExtractor(false)
	done := make(chan []model.Event, 8)
	for range 8 {
		go func() { done <- x.Extract("Monday 9am-5pm Inventory") }()
	}
	for range 8 {
		got := <-done
		require.Len(t, got, 1)
		assert.Equal(t, at(2026, 10, 19, 9, 0), got[0].Start)
	}
}
