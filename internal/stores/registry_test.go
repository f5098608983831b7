package stores_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/internal/stores"
)

// TestRegistryNames validates the set of built-in backends.
func TestRegistryNames(t *testing.T) {
	t.Parallel()

	r := stores.NewRegistry()
	assert.Equal(t, []string{
		"akeyless", "asm", "aws", "azure", "file",
		"gcp", "github", "local", "memory", "vault",
	}, r.Names())
}

// TestRegistryOpenMemory validates construction through the registry.
func TestRegistryOpenMemory(t *testing.T) {
	t.Parallel()

	r := stores.NewRegistry()
	sc := config.Scope{Service: "memory", Project: "myapp", Domain: "prod", Version: "1.0.0"}

	s, err := r.Open(context.Background(), sc, &config.File{})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Descriptor().Name)
	assert.Equal(t, "envr/prod/myapp/1.0.0/KEY", s.ResolveKey("KEY"))
}

// TestRegistryOpenUnknown validates the error on an unknown service.
func TestRegistryOpenUnknown(t *testing.T) {
	t.Parallel()

	r := stores.NewRegistry()
	sc := config.Scope{Service: "doppler"}

	_, err := r.Open(context.Background(), sc, &config.File{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store service")
	assert.Contains(t, err.Error(), "enveloper services")
}

// TestRegistryLookupDescriptors validates descriptor access without
// constructing backends, the path the services command uses.
func TestRegistryLookupDescriptors(t *testing.T) {
	t.Parallel()

	r := stores.NewRegistry()

	local, ok := r.Lookup("local")
	require.True(t, ok)
	assert.Len(t, local.Descriptor.DisplayRows(), 3)

	github, ok := r.Lookup("github")
	require.True(t, ok)
	assert.False(t, github.Descriptor.Capabilities.Read)
	assert.True(t, github.Descriptor.Capabilities.Write)

	_, ok = r.Lookup("doppler")
	assert.False(t, ok)
}
