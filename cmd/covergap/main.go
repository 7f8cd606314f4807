package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"covergap/internal/config"
	appLog "covergap/internal/log"
	"covergap/internal/model"
	"covergap/internal/profile"
	"covergap/internal/source"
)

var version = "0.1.0-dev"

// app is the state shared by subcommands after flag and config resolution.
type app struct {
	configPath string
	logLevel   string
	timezone   string

	cfg *config.Config
	loc *time.Location
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "covergap",
		Short:         "Extract shifts from schedules and find staffing coverage gaps",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config file (created with defaults if missing)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&a.timezone, "timezone", "", "IANA timezone for weekdays and hours (overrides config)")

	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newCompareCmd(a))
	root.AddCommand(newProfilesCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

// init loads config (when given) and applies flag overrides.
func (a *app) init() error {
	cfg := config.DefaultConfig()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.timezone != "" {
		cfg.Timezone = a.timezone
	}
	cfg.Normalize()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	a.cfg = cfg
	a.loc = loc
	appLog.Debug("effective config",
		"config_path", a.configPath,
		"timezone", loc.String(),
		"profile", cfg.Profile,
		"sources", len(cfg.Sources),
	)
	return nil
}

func (a *app) loader() *source.Loader {
	return source.NewLoader(source.Options{
		Location:     a.loc,
		DateOnly:     a.cfg.DateOnly,
		CacheDir:     a.cfg.CacheDir,
		HorizonDays:  a.cfg.HorizonDays,
		BackfillDays: a.cfg.BackfillDays,
	})
}

// profiles returns the preset registry plus custom profiles from the config
// file and the given override file.
func (a *app) profiles(extraFile string) (*profile.Registry, error) {
	reg := profile.NewRegistry()
	for _, f := range []string{a.cfg.ProfilesFile, extraFile} {
		if f == "" {
			continue
		}
		if err := reg.LoadFile(f); err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}
	return reg, nil
}

// loadFiles loads every file as one combined event list. Files that fail are
// logged and skipped as long as some other file produced events.
func (a *app) loadFiles(ctx context.Context, files []string) ([]model.Event, error) {
	specs, err := fileSpecs(files)
	if err != nil {
		return nil, err
	}
	events, err := a.loader().LoadAll(ctx, specs)
	if err != nil {
		if len(events) == 0 {
			return nil, err
		}
		appLog.Warn("continuing without failed files", "loaded_events", len(events), "err", err)
	}
	return events, nil
}

// fileSpecs turns file arguments into source specs keyed by path.
func fileSpecs(args []string) ([]source.Spec, error) {
	specs := make([]source.Spec, 0, len(args))
	for _, arg := range args {
		if arg == "" {
			return nil, errors.New("empty file argument")
		}
		specs = append(specs, source.Spec{ID: arg, Path: arg})
	}
	return specs, nil
}
