package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covergap/internal/profile"
)

func TestRequired_MissingVersusZero(t *testing.T) {
	p := profile.Profile{9: 1.0, 10: 0}

	assert.Equal(t, 1.0, p.Required(9))
	assert.Equal(t, 0.0, p.Required(10))
	assert.Equal(t, profile.MissingHourRequirement, p.Required(11))
}

func TestPresets_AreFullAndIsolated(t *testing.T) {
	for name, p := range map[string]profile.Profile{
		"default":     profile.Default(),
		"retail":      profile.Retail(),
		"healthcare":  profile.Healthcare(),
		"call-center": profile.CallCenter(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Len(t, p, 24)
			assert.NoError(t, p.Validate())
		})
	}

	mutated := profile.Retail()
	mutated[10] = 0
	assert.Equal(t, 1.0, profile.Retail()[10])
}

func TestValidate(t *testing.T) {
	assert.Error(t, profile.Profile{24: 0.5}.Validate())
	assert.Error(t, profile.Profile{3: 1.5}.Validate())
	assert.Error(t, profile.Profile{3: -0.1}.Validate())
	assert.NoError(t, profile.Profile{0: 0, 23: 1}.Validate())
}

func TestRegistry(t *testing.T) {
	r := profile.NewRegistry()

	assert.Equal(t, []string{"call-center", "default", "healthcare", "retail"}, r.Names())

	p, err := r.Lookup("Healthcare")
	require.NoError(t, err)
	assert.Equal(t, 0.7, p[0])

	p, err = r.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, profile.Default(), p)

	_, err = r.Lookup("nope")
	assert.Error(t, err)

	require.NoError(t, r.Add("Nights", profile.Profile{0: 0.9}))
	p, err = r.Lookup("nights")
	require.NoError(t, err)
	assert.Equal(t, profile.Profile{0: 0.9}, p)

	assert.Error(t, r.Add("bad", profile.Profile{0: 2}))
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("warehouse:\n  6: 0.8\n  7: 1\n  22: 0\n"), 0o600))

	r := profile.NewRegistry()
	require.NoError(t, r.LoadFile(path))

	p, err := r.Lookup("warehouse")
	require.NoError(t, err)
	assert.Equal(t, profile.Profile{6: 0.8, 7: 1, 22: 0}, p)

	require.NoError(t, os.WriteFile(path, []byte("broken:\n  30: 0.5\n"), 0o600))
	assert.Error(t, r.LoadFile(path))
}
