package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"covergap/internal/analyzer"
	"covergap/internal/model"
	"covergap/internal/profile"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEvents(w io.Writer, events []model.Event, format string, loc *time.Location) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return writeJSON(w, events)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tTITLE")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			e.Start.In(loc).Format("Mon 2006-01-02 15:04"),
			e.End.In(loc).Format("Mon 2006-01-02 15:04"),
			e.Title)
	}
	return tw.Flush()
}

type analysisOutput struct {
	Profile  string            `json:"profile"`
	Events   int               `json:"events"`
	Analysis model.GapAnalysis `json:"analysis"`
	Summary  model.Summary     `json:"summary"`
}

func printAnalysis(w io.Writer, profileName string, eventCount int, g model.GapAnalysis, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return writeJSON(w, analysisOutput{
			Profile:  profileName,
			Events:   eventCount,
			Analysis: g,
			Summary:  g.Summary(),
		})
	}

	critical := make(map[int]bool, len(g.CriticalGaps))
	for _, s := range g.CriticalGaps {
		critical[s.Hour] = true
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "HOUR\tREQUIRED\tACTUAL\tGAP\t\t")
	for _, s := range g.TimeSlots {
		mark := ""
		if critical[s.Hour] {
			mark = "critical"
		}
		fmt.Fprintf(tw, "%02d:00\t%.2f\t%.2f\t%.2f\t%s\t\n", s.Hour, s.RequiredCoverage, s.ActualCoverage, s.Gap, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := g.Summary()
	fmt.Fprintf(w, "\nprofile %s, %d events: average coverage %.2f, %d hours covered, %d with gaps, %d critical, total gap %.2f\n",
		profileName, eventCount, sum.AverageCoverage, sum.CoveredHours, sum.GapHours, sum.CriticalHours, sum.TotalGaps)
	for _, r := range g.Recommendations {
		fmt.Fprintln(w, r)
	}
	return nil
}

func printComparison(w io.Writer, profileName string, cmp analyzer.Comparison, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return writeJSON(w, struct {
			Profile string `json:"profile"`
			analyzer.Comparison
		}{profileName, cmp})
	}

	fmt.Fprintf(w, "profile %s\n", profileName)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCHEDULE\tTOTAL GAP\tCRITICAL\tAVG COVERAGE")
	for rank, idx := range cmp.Ranking {
		r := cmp.Results[idx]
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\t%.2f\n",
			rank+1, r.Name, r.Summary.TotalGaps, r.Summary.CriticalHours, r.Summary.AverageCoverage)
	}
	return tw.Flush()
}

func printProfiles(w io.Writer, reg *profile.Registry, defaultName, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	names := reg.Names()

	if format == formatJSON {
		out := make(map[string]profile.Profile, len(names))
		for _, n := range names {
			if p, err := reg.Lookup(n); err == nil {
				out[n] = p
			}
		}
		return writeJSON(w, out)
	}

	for _, n := range names {
		p, err := reg.Lookup(n)
		if err != nil {
			continue
		}
		values := make([]string, 24)
		for h := range values {
			values[h] = fmt.Sprintf("%.1f", p.Required(h))
		}
		marker := " "
		if n == strings.ToLower(defaultName) {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-12s %s\n", marker, n, strings.Join(values, " "))
	}
	return nil
}
