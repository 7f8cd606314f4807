package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"covergap/internal/analyzer"
	"covergap/internal/clock"
	appLog "covergap/internal/log"
	"covergap/internal/metrics"
	"covergap/internal/model"
	"covergap/internal/profile"
	"covergap/internal/source"
)

// Snapshot is the outcome of one refresh run.
type Snapshot struct {
	ID          string            `json:"id"`
	RefreshedAt time.Time         `json:"refreshed_at"`
	Profile     string            `json:"profile"`
	Sources     int               `json:"sources"`
	Events      []model.Event     `json:"events"`
	Analysis    model.GapAnalysis `json:"analysis"`
	Summary     model.Summary     `json:"summary"`
	Errors      []string          `json:"errors,omitempty"`
}

// EventLoader is the part of source.Loader the refresher needs.
type EventLoader interface {
	LoadAll(ctx context.Context, specs []source.Spec) ([]model.Event, error)
}

// Refresher periodically reloads the configured sources and keeps the
// latest analysis in memory.
type Refresher struct {
	loader      EventLoader
	specs       []source.Spec
	profileName string
	profile     profile.Profile
	analyzer    *analyzer.Analyzer
	clock       clock.Clock
	loc         *time.Location

	mu     sync.RWMutex
	latest *Snapshot
}

// RefresherOptions configures NewRefresher.
type RefresherOptions struct {
	Loader      EventLoader
	Sources     []source.Spec
	ProfileName string
	Profile     profile.Profile
	Location    *time.Location
	Clock       clock.Clock
}

func NewRefresher(opts RefresherOptions) *Refresher {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	return &Refresher{
		loader:      opts.Loader,
		specs:       opts.Sources,
		profileName: opts.ProfileName,
		profile:     opts.Profile,
		analyzer:    analyzer.New(analyzer.Options{Location: opts.Location}),
		clock:       opts.Clock,
		loc:         opts.Location,
	}
}

// Latest returns the most recent snapshot, if any run has completed.
func (r *Refresher) Latest() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return Snapshot{}, false
	}
	return *r.latest, true
}

// RefreshOnce loads every source and analyzes the combined events. Partial
// source failures are recorded on the snapshot rather than discarding it.
func (r *Refresher) RefreshOnce(ctx context.Context) Snapshot {
	events, err := r.loader.LoadAll(ctx, r.specs)
	if events == nil {
		events = []model.Event{}
	}

	analysis := r.analyzer.Analyze(events, r.profile)
	snap := Snapshot{
		ID:          uuid.NewString(),
		RefreshedAt: r.clock.Now().In(r.loc),
		Profile:     r.profileName,
		Sources:     len(r.specs),
		Events:      events,
		Analysis:    analysis,
		Summary:     analysis.Summary(),
	}
	if err != nil {
		snap.Errors = []string{err.Error()}
	}

	result := "ok"
	switch {
	case len(events) == 0:
		result = "empty"
	case err != nil:
		result = "error"
	}
	metrics.RefreshTotal.WithLabelValues(result).Inc()

	r.mu.Lock()
	r.latest = &snap
	r.mu.Unlock()

	appLog.Info("refresh completed", "id", snap.ID, "result", result, "events", len(events),
		"total_gaps", analysis.TotalGaps, "critical_hours", len(analysis.CriticalGaps))
	return snap
}

// Start runs one refresh immediately and then on spec until ctx is
// canceled. It returns once the schedule is registered.
func (r *Refresher) Start(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(r.loc))
	if _, err := c.AddFunc(spec, func() { r.RefreshOnce(ctx) }); err != nil {
		return err
	}

	go r.RefreshOnce(ctx)
	c.Start()
	appLog.Info("refresh scheduled", "cron", spec, "sources", len(r.specs))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Debug("refresh scheduler stopped")
	}()
	return nil
}
