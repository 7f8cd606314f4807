package source_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covergap/internal/clock"
	"covergap/internal/extract"
	appLog "covergap/internal/log"
	"covergap/internal/source"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const calendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//covergap//test//EN
BEGIN:VEVENT
UID:desk@test
DTSTART:20261015T090000Z
DTEND:20261015T170000Z
RRULE:FREQ=DAILY;COUNT=3
SUMMARY:Front desk
END:VEVENT
BEGIN:VEVENT
UID:old@test
DTSTART:20250101T090000Z
DTEND:20250101T100000Z
SUMMARY:Long gone
END:VEVENT
END:VCALENDAR
`

func newLoader(t *testing.T) *source.Loader {
	t.Helper()
	return source.NewLoader(source.Options{
		Location: time.UTC,
		Clock:    clock.NewFixed(time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)),
		CacheDir: t.TempDir(),
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestResolvedKind(t *testing.T) {
	tests := map[string]struct {
		spec     source.Spec
		expected source.Kind
	}{
		"Explicit":      {spec: source.Spec{Kind: "CSV", Path: "x.ics"}, expected: source.KindCSV},
		"ICSPath":       {spec: source.Spec{Path: "team.ics"}, expected: source.KindICS},
		"CSVPath":       {spec: source.Spec{Path: "/tmp/Shifts.CSV"}, expected: source.KindCSV},
		"TextPath":      {spec: source.Spec{Path: "notes.txt"}, expected: source.KindText},
		"URLWithQuery":  {spec: source.Spec{URL: "https://x.test/cal/basic.ics?token=1"}, expected: source.KindICS},
		"URLWithoutExt": {spec: source.Spec{URL: "https://x.test/feed"}, expected: source.KindText},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.spec.ResolvedKind())
		})
	}
}

func TestLoad_Text(t *testing.T) {
	p := writeFile(t, "week.txt", "Monday 9:00 AM - 5:00 PM Inventory\nnothing here\n")

	events, err := newLoader(t).Load(context.Background(), source.Spec{ID: "notes", Path: p})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Inventory", events[0].Title)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), events[0].Start)
}

func TestLoad_CSV(t *testing.T) {
	p := writeFile(t, "shifts.csv", "title,start,end\nOpening,2026-10-15 08:00,2026-10-15 12:00\n")

	events, err := newLoader(t).Load(context.Background(), source.Spec{Path: p})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Opening", events[0].Title)
}

func TestLoad_CalendarFileExpandsWithinHorizon(t *testing.T) {
	p := writeFile(t, "team.ics", calendar)

	events, err := newLoader(t).Load(context.Background(), source.Spec{Path: p})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, "Front desk", e.Title)
		assert.True(t, e.Start.Equal(time.Date(2026, 10, 15+i, 9, 0, 0, 0, time.UTC)))
	}
}

func TestLoad_CalendarURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, calendar)
	}))
	defer srv.Close()

	events, err := newLoader(t).Load(context.Background(), source.Spec{ID: "team", URL: srv.URL + "/team.ics"})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestLoad_NoEvents(t *testing.T) {
	p := writeFile(t, "empty.txt", "just some notes\n")

	_, err := newLoader(t).Load(context.Background(), source.Spec{ID: "notes", Path: p})
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrNoEvents)
	assert.Contains(t, err.Error(), "notes")
}

func TestLoad_Errors(t *testing.T) {
	l := newLoader(t)

	_, err := l.Load(context.Background(), source.Spec{ID: "none"})
	assert.Error(t, err)

	_, err = l.Load(context.Background(), source.Spec{Path: filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)

	_, err = l.Load(context.Background(), source.Spec{Kind: "pdf", Path: writeFile(t, "x.pdf", "Monday 9am")})
	assert.Error(t, err)
}

func TestLoadAll(t *testing.T) {
	l := newLoader(t)
	specs := []source.Spec{
		{ID: "text", Path: writeFile(t, "a.txt", "Tuesday 2pm Team Sync")},
		{ID: "missing", Path: filepath.Join(t.TempDir(), "missing.txt")},
		{ID: "empty", Path: writeFile(t, "b.txt", "no schedule")},
		{ID: "cal", Path: writeFile(t, "c.ics", calendar)},
	}

	events, err := l.LoadAll(context.Background(), specs)
	require.Error(t, err)
	assert.NotErrorIs(t, err, extract.ErrNoEvents)
	require.Len(t, events, 4)
	assert.Equal(t, "Team Sync", events[0].Title)
	assert.Equal(t, "Front desk", events[1].Title)

	_, err = l.LoadAll(context.Background(), specs[2:3])
	assert.ErrorIs(t, err, extract.ErrNoEvents)
}
