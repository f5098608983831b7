package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/enveloper/internal/config"
)

func ptr(s string) *string { return &s }

func envFrom(m map[string]string) config.LookupEnv {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// TestResolveDefaults validates the bottom of the precedence chain.
func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	sc, err := config.Resolve(config.Options{}, envFrom(nil), &config.File{})
	require.NoError(t, err)

	assert.Equal(t, "_default_", sc.Project)
	assert.Equal(t, "_default_", sc.Domain)
	assert.Equal(t, "local", sc.Service)
	assert.Equal(t, "1.0.0", sc.Version)
	assert.Equal(t, ".env", sc.Path)
}

// TestResolvePrecedence validates that each layer shadows everything below it.
func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	file := &config.File{Project: ptr("file-proj"), Domain: ptr("file-dom")}
	env := envFrom(map[string]string{
		"ENVELOPER_PROJECT": "env-proj",
	})

	// File wins over default, env wins over file, flag wins over env.
	sc, err := config.Resolve(config.Options{}, env, file)
	require.NoError(t, err)
	assert.Equal(t, "env-proj", sc.Project)
	assert.Equal(t, "file-dom", sc.Domain)

	sc, err = config.Resolve(config.Options{Project: ptr("flag-proj")}, env, file)
	require.NoError(t, err)
	assert.Equal(t, "flag-proj", sc.Project)
}

// TestResolvePresenceBeatsContent validates that an empty value from a
// higher layer still shadows a non-empty one from a lower layer.
func TestResolvePresenceBeatsContent(t *testing.T) {
	t.Parallel()

	file := &config.File{Project: ptr("file-proj")}
	env := envFrom(map[string]string{"ENVELOPER_PROJECT": ""})

	sc, err := config.Resolve(config.Options{}, env, file)
	require.NoError(t, err)
	assert.Equal(t, "", sc.Project)

	sc, err = config.Resolve(config.Options{Project: ptr("")}, env, file)
	require.NoError(t, err)
	assert.Equal(t, "", sc.Project)
}

// TestResolveFileAbsenceVersusEmpty validates that only a nil pointer field
// continues the search to the default.
func TestResolveFileAbsenceVersusEmpty(t *testing.T) {
	t.Parallel()

	sc, err := config.Resolve(config.Options{}, envFrom(nil), &config.File{Project: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "", sc.Project)

	sc, err = config.Resolve(config.Options{}, envFrom(nil), &config.File{Project: nil})
	require.NoError(t, err)
	assert.Equal(t, "_default_", sc.Project)
}

// TestResolveVersionValidation validates fail-fast on malformed versions
// from any source.
func TestResolveVersionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		version string
		ok      bool
	}{
		{"three_part", "2.10.3", true},
		{"two_part", "1.0", false},
		{"four_part", "1.0.0.0", false},
		{"pre_release", "1.0.0-rc1", false},
		{"words", "latest", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Resolve(config.Options{Version: ptr(tt.version)}, envFrom(nil), &config.File{})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "semantic version")
			}
		})
	}
}

// TestResolvePathPerDomain validates the domain-specific env_file override.
func TestResolvePathPerDomain(t *testing.T) {
	t.Parallel()

	file := &config.File{
		Domains: map[string]config.DomainConfig{
			"prod": {EnvFile: ptr(".env.prod")},
		},
	}

	sc, err := config.Resolve(config.Options{Domain: ptr("prod")}, envFrom(nil), file)
	require.NoError(t, err)
	assert.Equal(t, ".env.prod", sc.Path)

	// Other domains fall through to the default.
	sc, err = config.Resolve(config.Options{Domain: ptr("staging")}, envFrom(nil), file)
	require.NoError(t, err)
	assert.Equal(t, ".env", sc.Path)

	// An explicit flag beats the per-domain override.
	sc, err = config.Resolve(config.Options{Domain: ptr("prod"), Path: ptr("custom.env")}, envFrom(nil), file)
	require.NoError(t, err)
	assert.Equal(t, "custom.env", sc.Path)
}

// TestResolveNilFile validates resolution without any configuration file.
func TestResolveNilFile(t *testing.T) {
	t.Parallel()

	sc, err := config.Resolve(config.Options{}, envFrom(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, "local", sc.Service)
}
