package config_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covergap/internal/config"
	appLog "covergap/internal/log"
	"covergap/internal/source"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestLoad_FirstRunWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: UTC
log_level: LOUD
sources:
  - path: week.txt
  - id: team
    url: https://calendar.example/team.ics
    kind: ics
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "default", cfg.Profile)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, 7, cfg.HorizonDays)
	assert.Equal(t, []source.Spec{
		{ID: "source-1", Path: "week.txt"},
		{ID: "team", URL: "https://calendar.example/team.ics", Kind: source.KindICS},
	}, cfg.Sources)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*config.Config)
		valid  bool
	}{
		"Default": {
			mutate: func(*config.Config) {},
			valid:  true,
		},
		"BadCron": {
			mutate: func(c *config.Config) { c.RefreshCron = "every minute" },
		},
		"BadTimezone": {
			mutate: func(c *config.Config) { c.Timezone = "Mars/Olympus" },
		},
		"SourceWithoutLocation": {
			mutate: func(c *config.Config) { c.Sources = []source.Spec{{ID: "x"}} },
		},
		"DuplicateSource": {
			mutate: func(c *config.Config) {
				c.Sources = []source.Spec{{ID: "x", Path: "a"}, {ID: "x", Path: "b"}}
			},
		},
		"AuthWithoutUser": {
			mutate: func(c *config.Config) { c.BasicAuth = &config.BasicAuthConfig{Password: "p"} },
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(cfg)
			if tc.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh: \"61 * * * *\"\n"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
