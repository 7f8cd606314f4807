// Package source loads canonical events from a configured file or URL,
// choosing the decoder by kind.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"covergap/internal/clock"
	"covergap/internal/extract"
	"covergap/internal/ics"
	appLog "covergap/internal/log"
	"covergap/internal/model"
	"covergap/internal/record"
)

// Kind selects the decoder for a source.
type Kind string

const (
	KindICS  Kind = "ics"
	KindCSV  Kind = "csv"
	KindText Kind = "text"
)

// Spec describes one source. Exactly one of URL or Path is expected; URL
// wins when both are set.
type Spec struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Kind Kind   `yaml:"kind,omitempty" json:"kind,omitempty"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// ResolvedKind returns Kind, or infers it from the file extension.
func (s Spec) ResolvedKind() Kind {
	if s.Kind != "" {
		return Kind(strings.ToLower(string(s.Kind)))
	}
	name := s.Path
	if s.URL != "" {
		name = s.URL
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		name = path.Base(name)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ics", ".ical", ".ifb":
		return KindICS
	case ".csv", ".tsv":
		return KindCSV
	default:
		return KindText
	}
}

func (s Spec) label() string {
	switch {
	case s.ID != "":
		return s.ID
	case s.Path != "":
		return s.Path
	default:
		return "url"
	}
}

// Loader turns specs into events.
type Loader struct {
	Extractor *extract.Extractor
	Fetcher   *ics.Fetcher
	Location  *time.Location
	Clock     clock.Clock
	// Calendar recurrences are expanded over [now-BackfillDays, now+HorizonDays].
	HorizonDays  int
	BackfillDays int
}

// Options for NewLoader.
type Options struct {
	Location     *time.Location
	Clock        clock.Clock
	DateOnly     bool
	CacheDir     string
	HorizonDays  int
	BackfillDays int
}

// NewLoader wires an extractor and fetcher from opts.
func NewLoader(opts Options) *Loader {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 7
	}
	if opts.BackfillDays < 0 {
		opts.BackfillDays = 0
	}
	return &Loader{
		Extractor: extract.New(extract.Options{
			Location: opts.Location,
			Clock:    opts.Clock,
			DateOnly: opts.DateOnly,
		}),
		Fetcher:      ics.NewFetcher(opts.CacheDir, nil),
		Location:     opts.Location,
		Clock:        opts.Clock,
		HorizonDays:  opts.HorizonDays,
		BackfillDays: opts.BackfillDays,
	}
}

// Load reads and decodes one source. An empty result is reported as
// extract.ErrNoEvents wrapped with the source label.
func (l *Loader) Load(ctx context.Context, spec Spec) ([]model.Event, error) {
	body, err := l.read(ctx, spec)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	kind := spec.ResolvedKind()
	switch kind {
	case KindICS:
		events, err = l.fromCalendar(spec, body)
	case KindCSV:
		events, err = l.fromDelimited(body)
	case KindText:
		events = l.Extractor.Extract(string(body))
	default:
		err = fmt.Errorf("unknown source kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", spec.label(), err)
	}
	if err := extract.RequireEvents(events); err != nil {
		return nil, fmt.Errorf("source %s: %w", spec.label(), err)
	}

	appLog.Info("source loaded", "source", spec.label(), "kind", kind, "events", len(events))
	return events, nil
}

// LoadAll loads every spec concurrently and concatenates the events in spec
// order. Sources that fail are logged and reported together in the error;
// events from the others are still returned. When nothing at all was found
// the error wraps extract.ErrNoEvents.
func (l *Loader) LoadAll(ctx context.Context, specs []Spec) ([]model.Event, error) {
	perSource := make([][]model.Event, len(specs))
	errs := make([]error, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, spec := range specs {
		g.Go(func() error {
			events, err := l.Load(ctx, spec)
			if err != nil && !errors.Is(err, extract.ErrNoEvents) {
				appLog.Error("source load failed", err, "source", spec.label())
				errs[i] = err
			}
			perSource[i] = events
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Event
	for _, events := range perSource {
		all = append(all, events...)
	}
	err := errors.Join(errs...)
	if len(all) == 0 {
		return nil, errors.Join(extract.ErrNoEvents, err)
	}
	return all, err
}

func (l *Loader) read(ctx context.Context, spec Spec) ([]byte, error) {
	switch {
	case spec.URL != "":
		res, err := l.Fetcher.Fetch(ctx, ics.Source{ID: spec.ID, URL: spec.URL})
		if err != nil {
			return nil, err
		}
		return res.Body, nil
	case spec.Path != "":
		data, err := os.ReadFile(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.label(), err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("source %s: no url or path", spec.label())
	}
}

func (l *Loader) fromCalendar(spec Spec, body []byte) ([]model.Event, error) {
	parsed, err := ics.Decode(ics.Source{ID: spec.ID, URL: spec.URL}, body)
	if err != nil {
		return nil, err
	}
	now := l.Clock.Now().In(l.Location)
	res, err := ics.Expand(parsed, ics.ExpandConfig{
		Location:   l.Location,
		RangeStart: now.AddDate(0, 0, -l.BackfillDays),
		RangeEnd:   now.AddDate(0, 0, l.HorizonDays),
	})
	if err != nil {
		return nil, err
	}
	return record.Parse(ics.ToRecords(res.Occurrences), record.Options{
		Location: l.Location,
		Clock:    l.Clock,
	}), nil
}

func (l *Loader) fromDelimited(body []byte) ([]model.Event, error) {
	records, err := record.ReadDelimited(bytes.NewReader(body), l.Location)
	if err != nil {
		return nil, err
	}
	return record.Parse(records, record.Options{Location: l.Location, Clock: l.Clock}), nil
}
