// Package analyzer turns a list of events and a requirement profile into an
// hour-by-hour coverage picture with gaps and recommendations.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "covergap/internal/log"
	"covergap/internal/metrics"
	"covergap/internal/model"
	"covergap/internal/profile"
)

const (
	peakStart    = 9
	peakEnd      = 17
	eveningStart = 18
	eveningEnd   = 22

	// A slot is critical when it misses more than half of a requirement
	// above this floor.
	criticalRequiredFloor = 0.3
	criticalGapRatio      = 0.5
)

const (
	msgGreatCoverage = "✅ Great coverage! Your schedule looks well-balanced."
	msgPeakGaps      = "⚠️ Critical gaps detected during peak hours (9am-5pm). Consider adding %d more shift(s)."
	msgEveningGaps   = "📊 Moderate gaps in evening hours. You may want to add coverage for %d hour(s)."
	msgLowCoverage   = "💡 Consider adding coverage during: %s"
)

// Options configures an Analyzer.
type Options struct {
	// Location in which event hours and minutes are read. Defaults to
	// time.Local.
	Location *time.Location
}

// Analyzer is stateless apart from its options and safe for concurrent use.
type Analyzer struct {
	loc *time.Location
}

func New(opts Options) *Analyzer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Analyzer{loc: opts.Location}
}

// Analyze runs the package default analyzer (local time).
func Analyze(events []model.Event, p profile.Profile) model.GapAnalysis {
	return New(Options{}).Analyze(events, p)
}

// Analyze computes per-hour coverage for events against p. A nil profile
// means every hour requires 0.5.
func (a *Analyzer) Analyze(events []model.Event, p profile.Profile) model.GapAnalysis {
	timer := time.Now()
	defer func() {
		metrics.AnalyzerDurationSeconds.Observe(time.Since(timer).Seconds())
	}()

	var coverage [24]float64
	for i, e := range events {
		if !e.Valid() {
			appLog.Warn("invalid event date, skipping", "index", i, "title", e.Title)
			metrics.AnalyzerEventsSkipped.Inc()
			continue
		}
		a.accumulate(&coverage, e)
	}

	result := model.GapAnalysis{
		TimeSlots:    make([]model.TimeSlot, 0, 24),
		CriticalGaps: []model.TimeSlot{},
	}
	for hour := 0; hour < 24; hour++ {
		required := p.Required(hour)
		actual := coverage[hour]
		slot := model.TimeSlot{
			Hour:             hour,
			RequiredCoverage: required,
			ActualCoverage:   actual,
			Gap:              max(0, required-actual),
		}
		result.TimeSlots = append(result.TimeSlots, slot)
		result.TotalGaps += slot.Gap
		if isCritical(slot) {
			result.CriticalGaps = append(result.CriticalGaps, slot)
		}
	}
	result.Recommendations = recommend(result)

	metrics.LastTotalGaps.Set(result.TotalGaps)
	metrics.LastCriticalHours.Set(float64(len(result.CriticalGaps)))
	return result
}

// accumulate adds one event's contribution. Hours are read on the clock
// only, so a multi-day event counts as its start-to-end hour span; when the
// start hour is later than the end hour the span wraps past midnight.
func (a *Analyzer) accumulate(coverage *[24]float64, e model.Event) {
	start := e.Start.In(a.loc)
	end := e.End.In(a.loc)
	startHour, startMinute := start.Hour(), start.Minute()
	endHour, endMinute := end.Hour(), end.Minute()

	startWeight := 1.0
	if startMinute > 0 {
		startWeight = float64(60-startMinute) / 60
	}
	endWeight := 1.0
	if endMinute > 0 {
		endWeight = float64(endMinute) / 60
	}

	if startHour > endHour {
		for hour := startHour; hour < 24; hour++ {
			w := 1.0
			if hour == startHour {
				w = startWeight
			}
			coverage[hour] += w
		}
		for hour := 0; hour <= endHour; hour++ {
			w := 1.0
			if hour == endHour {
				w = endWeight
			}
			coverage[hour] += w
		}
		return
	}

	for hour := startHour; hour <= endHour; hour++ {
		w := 1.0
		if hour == startHour {
			w = startWeight
		}
		if hour == endHour {
			w = min(w, endWeight)
		}
		coverage[hour] += w
	}
}

func isCritical(s model.TimeSlot) bool {
	return s.Gap > s.RequiredCoverage*criticalGapRatio && s.RequiredCoverage > criticalRequiredFloor
}

func recommend(g model.GapAnalysis) []string {
	var recs []string

	if len(g.CriticalGaps) == 0 {
		recs = append(recs, msgGreatCoverage)
	} else {
		var peak, evening int
		for _, s := range g.CriticalGaps {
			switch {
			case s.Hour >= peakStart && s.Hour <= peakEnd:
				peak++
			case s.Hour >= eveningStart && s.Hour <= eveningEnd:
				evening++
			}
		}
		if peak > 0 {
			recs = append(recs, fmt.Sprintf(msgPeakGaps, peak))
		}
		if evening > 0 {
			recs = append(recs, fmt.Sprintf(msgEveningGaps, evening))
		}
	}

	var low []string
	for _, s := range g.TimeSlots {
		if s.Gap > 0 && s.Hour >= peakStart && s.Hour <= peakEnd {
			low = append(low, fmt.Sprintf("%d:00", s.Hour))
		}
	}
	if len(low) > 0 {
		recs = append(recs, fmt.Sprintf(msgLowCoverage, strings.Join(low, ", ")))
	}

	if recs == nil {
		recs = []string{}
	}
	return recs
}

// Schedule is a named event list, one candidate in a comparison.
type Schedule struct {
	Name   string
	Events []model.Event
}

// Result pairs a schedule name with its analysis.
type Result struct {
	Name     string            `json:"name"`
	Analysis model.GapAnalysis `json:"analysis"`
	Summary  model.Summary     `json:"summary"`
}

// Comparison holds one Result per schedule in input order. Ranking lists
// indexes into Results from fewest to most total gaps; ties keep input order.
type Comparison struct {
	Results []Result `json:"results"`
	Ranking []int    `json:"ranking"`
}

// Best returns the schedule with the fewest total gaps.
func (c Comparison) Best() (Result, bool) {
	if len(c.Ranking) == 0 {
		return Result{}, false
	}
	return c.Results[c.Ranking[0]], true
}

// Compare analyzes every schedule against the same profile concurrently.
func (a *Analyzer) Compare(ctx context.Context, schedules []Schedule, p profile.Profile) (Comparison, error) {
	results := make([]Result, len(schedules))

	g, ctx := errgroup.WithContext(ctx)
	for i, s := range schedules {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("compare %s: %w", s.Name, err)
			}
			analysis := a.Analyze(s.Events, p)
			results[i] = Result{Name: s.Name, Analysis: analysis, Summary: analysis.Summary()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	ranking := make([]int, len(results))
	for i := range ranking {
		ranking[i] = i
	}
	sort.SliceStable(ranking, func(x, y int) bool {
		return results[ranking[x]].Analysis.TotalGaps < results[ranking[y]].Analysis.TotalGaps
	})

	appLog.Debug("schedules compared", "count", len(schedules))
	return Comparison{Results: results, Ranking: ranking}, nil
}
