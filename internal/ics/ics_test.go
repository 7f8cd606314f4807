package ics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covergap/internal/ics"
	appLog "covergap/internal/log"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const calendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//covergap//test//EN
BEGIN:VEVENT
UID:weekly@test
DTSTART:20261005T090000Z
DTEND:20261005T170000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20261012T090000Z
SUMMARY:Front desk
DESCRIPTION:Main entrance
END:VEVENT
BEGIN:VEVENT
UID:weekly@test
RECURRENCE-ID:20261019T090000Z
SEQUENCE:1
DTSTART:20261019T120000Z
DTEND:20261019T200000Z
SUMMARY:Front desk (late)
END:VEVENT
BEGIN:VEVENT
UID:holiday@test
DTSTART;VALUE=DATE:20261026
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
SUMMARY:No identifier
DTSTART:20261006T090000Z
END:VEVENT
END:VCALENDAR
`

var src = ics.Source{ID: "team"}

func utc(day, hour int) time.Time {
	return time.Date(2026, time.October, day, hour, 0, 0, 0, time.UTC)
}

func TestDecode(t *testing.T) {
	events, err := ics.Decode(src, []byte(calendar))
	require.NoError(t, err)
	require.Len(t, events, 3)

	weekly := events[0]
	assert.Equal(t, "weekly@test", weekly.UID)
	assert.Equal(t, "Front desk", weekly.Summary)
	assert.Equal(t, "Main entrance", weekly.Description)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", weekly.RRule)
	assert.True(t, weekly.Start.Equal(utc(5, 9)))
	assert.True(t, weekly.End.Equal(utc(5, 17)))
	require.Len(t, weekly.ExDates, 1)
	assert.True(t, weekly.ExDates[0].Equal(utc(12, 9)))
	assert.False(t, weekly.IsOverride())

	override := events[1]
	assert.True(t, override.IsOverride())
	assert.Equal(t, 1, override.Sequence)
	assert.True(t, override.RecurrenceID.Equal(utc(19, 9)))

	holiday := events[2]
	assert.True(t, holiday.AllDay)
	assert.Equal(t, 24*time.Hour, holiday.End.Sub(holiday.Start))
}

func TestDecode_Empty(t *testing.T) {
	_, err := ics.Decode(src, []byte("  \n"))
	assert.Error(t, err)

	_, err = ics.Decode(src, []byte("not a calendar"))
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	events, err := ics.Decode(src, []byte(calendar))
	require.NoError(t, err)

	res, err := ics.Expand(events, ics.ExpandConfig{
		Location:   time.UTC,
		RangeStart: utc(1, 0),
		RangeEnd:   utc(31, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Truncated)

	type span struct {
		summary    string
		start, end time.Time
	}
	var (
		got    []span
		allDay int
	)
	for _, o := range res.Occurrences {
		if o.AllDay {
			allDay++
			continue
		}
		got = append(got, span{o.Summary, o.Start, o.End})
	}
	assert.Equal(t, 1, allDay)
	assert.Equal(t, []span{
		{"Front desk", utc(5, 9), utc(5, 17)},
		{"Front desk (late)", utc(19, 12), utc(19, 20)},
		{"Front desk", utc(26, 9), utc(26, 17)},
	}, got)

	records := ics.ToRecords(res.Occurrences)
	require.Len(t, records, 3)
	assert.Equal(t, "Front desk (late)", records[1].Title)
	assert.True(t, records[1].Start.Time.Equal(utc(19, 12)))
}

func TestExpand_CapAndRange(t *testing.T) {
	events := []ics.ParsedEvent{{
		UID:   "daily",
		Start: utc(1, 8),
		End:   utc(1, 9),
		RRule: "FREQ=DAILY",
	}}

	res, err := ics.Expand(events, ics.ExpandConfig{
		Location:       time.UTC,
		RangeStart:     utc(1, 0),
		RangeEnd:       utc(31, 0),
		MaxOccurrences: 10,
	})
	require.NoError(t, err)
	assert.Len(t, res.Occurrences, 10)
	assert.Equal(t, []string{"daily"}, res.Truncated)

	_, err = ics.Expand(events, ics.ExpandConfig{RangeStart: utc(2, 0), RangeEnd: utc(1, 0)})
	assert.Error(t, err)
}

func TestFetcher(t *testing.T) {
	var (
		requests atomic.Int32
		failing  atomic.Bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if failing.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = io.WriteString(w, calendar)
	}))
	defer srv.Close()

	f := ics.NewFetcher(t.TempDir(), srv.Client())
	feed := ics.Source{ID: "team", URL: srv.URL + "/cal.ics?token=secret"}
	ctx := context.Background()

	first, err := f.Fetch(ctx, feed)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, calendar, string(first.Body))

	second, err := f.Fetch(ctx, feed)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, calendar, string(second.Body))

	failing.Store(true)
	third, err := f.Fetch(ctx, feed)
	require.NoError(t, err)
	assert.True(t, third.FromCache)

	_, err = f.Fetch(ctx, ics.Source{ID: "other", URL: srv.URL + "/other.ics"})
	assert.Error(t, err)

	assert.EqualValues(t, 4, requests.Load())
}
