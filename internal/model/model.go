package model

import "time"

// Event is the canonical, source-independent form of one time-bounded
// occurrence. Both extractors (free text and structured records) produce it.
//
// Start <= End is not guaranteed: overnight shifts end on the next day.
// The zero time.Time marks an invalid timestamp.
type Event struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
}

// Valid reports whether both timestamps are usable.
func (e Event) Valid() bool {
	return !e.Start.IsZero() && !e.End.IsZero()
}

// TimeSlot is the coverage picture for one hour of the day.
type TimeSlot struct {
	Hour             int     `json:"hour"`
	RequiredCoverage float64 `json:"required_coverage"`
	ActualCoverage   float64 `json:"actual_coverage"`
	Gap              float64 `json:"gap"`
}

// GapAnalysis is the analyzer output. TimeSlots always holds 24 entries,
// index-aligned to hour.
type GapAnalysis struct {
	TimeSlots       []TimeSlot `json:"time_slots"`
	TotalGaps       float64    `json:"total_gaps"`
	CriticalGaps    []TimeSlot `json:"critical_gaps"`
	Recommendations []string   `json:"recommendations"`
}

// Summary condenses a GapAnalysis into a few headline numbers.
type Summary struct {
	AverageCoverage float64 `json:"average_coverage"`
	CoveredHours    int     `json:"covered_hours"`
	GapHours        int     `json:"gap_hours"`
	CriticalHours   int     `json:"critical_hours"`
	TotalGaps       float64 `json:"total_gaps"`
}

// Summary computes headline numbers. AverageCoverage is the mean actual
// coverage across the 24 hours.
func (g GapAnalysis) Summary() Summary {
	var s Summary
	var sum float64
	for _, slot := range g.TimeSlots {
		sum += slot.ActualCoverage
		if slot.ActualCoverage > 0 {
			s.CoveredHours++
		}
		if slot.Gap > 0 {
			s.GapHours++
		}
	}
	if len(g.TimeSlots) > 0 {
		s.AverageCoverage = sum / float64(len(g.TimeSlots))
	}
	s.CriticalHours = len(g.CriticalGaps)
	s.TotalGaps = g.TotalGaps
	return s
}
