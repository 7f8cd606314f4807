package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"covergap/internal/analyzer"
	"covergap/internal/extract"
	"covergap/internal/filter"
)

func newExtractCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Print the events found in text, CSV or iCalendar files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.loadFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), events, format, a.loc)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

type filterFlags struct {
	search    string
	days      []string
	startHour int
	endHour   int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "Keep events whose title or description contains this text")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "Keep events starting on these weekdays (e.g. mon,tue)")
	cmd.Flags().IntVar(&f.startHour, "start-hour", 0, "Keep events touching hours from this one")
	cmd.Flags().IntVar(&f.endHour, "end-hour", 23, "Keep events touching hours up to this one")
}

func (f *filterFlags) criteria(a *app) (filter.Criteria, error) {
	c := filter.All()
	c.Location = a.loc
	c.Search = f.search
	c.StartHour, c.EndHour = f.startHour, f.endHour
	if c.StartHour < 0 || c.EndHour > 23 || c.StartHour > c.EndHour {
		return c, fmt.Errorf("invalid hour window %d-%d", c.StartHour, c.EndHour)
	}
	days, unknown := filter.ParseWeekdays(f.days)
	if len(unknown) > 0 {
		return c, fmt.Errorf("unknown weekdays: %v", unknown)
	}
	c.Weekdays = days
	return c, nil
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		profileName  string
		profilesFile string
		format       string
		filters      filterFlags
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze hourly coverage of the events in the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria(a)
			if err != nil {
				return err
			}
			reg, err := a.profiles(profilesFile)
			if err != nil {
				return err
			}
			if profileName == "" {
				profileName = a.cfg.Profile
			}
			p, err := reg.Lookup(profileName)
			if err != nil {
				return err
			}

			events, err := a.loadFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			events = filter.Apply(events, criteria)
			if err := extract.RequireEvents(events); err != nil {
				return err
			}

			result := analyzer.New(analyzer.Options{Location: a.loc}).Analyze(events, p)
			return printAnalysis(cmd.OutOrStdout(), profileName, len(events), result, format)
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "Requirement profile name (default from config)")
	cmd.Flags().StringVar(&profilesFile, "profiles-file", "", "YAML file with custom profiles")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	filters.register(cmd)
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		profileName  string
		profilesFile string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "compare FILE FILE...",
		Short: "Rank several schedules by total coverage gap",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.profiles(profilesFile)
			if err != nil {
				return err
			}
			if profileName == "" {
				profileName = a.cfg.Profile
			}
			p, err := reg.Lookup(profileName)
			if err != nil {
				return err
			}

			schedules, err := loadSchedules(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			cmp, err := analyzer.New(analyzer.Options{Location: a.loc}).Compare(cmd.Context(), schedules, p)
			if err != nil {
				return err
			}
			return printComparison(cmd.OutOrStdout(), profileName, cmp, format)
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "Requirement profile name (default from config)")
	cmd.Flags().StringVar(&profilesFile, "profiles-file", "", "YAML file with custom profiles")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

// loadSchedules loads each file as its own schedule; any file without
// events fails the comparison.
func loadSchedules(ctx context.Context, a *app, files []string) ([]analyzer.Schedule, error) {
	specs, err := fileSpecs(files)
	if err != nil {
		return nil, err
	}
	loader := a.loader()
	schedules := make([]analyzer.Schedule, 0, len(specs))
	for _, spec := range specs {
		events, err := loader.Load(ctx, spec)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, analyzer.Schedule{Name: spec.ID, Events: events})
	}
	return schedules, nil
}

func newProfilesCmd(a *app) *cobra.Command {
	var (
		profilesFile string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List requirement profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.profiles(profilesFile)
			if err != nil {
				return err
			}
			return printProfiles(cmd.OutOrStdout(), reg, a.cfg.Profile, format)
		},
	}
	cmd.Flags().StringVar(&profilesFile, "profiles-file", "", "YAML file with custom profiles")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}
