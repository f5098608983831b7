package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/enveloper/pkg/store"
)

// fakeStore is a minimal Store used to exercise the shared helpers.
type fakeStore struct {
	format store.KeyFormat
	scope  store.Scope
	data   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		format: slashFormat(),
		scope:  store.Scope{Domain: "prod", Project: "myapp", Version: "1.0.0"},
		data:   map[string]string{},
	}
}

func (f *fakeStore) Descriptor() store.Descriptor {
	return store.Descriptor{
		Name:         "fake",
		DisplayName:  "Fake store",
		Capabilities: store.Capabilities{Read: true, Write: true, List: true, Clear: true},
	}
}

func (f *fakeStore) Format() store.KeyFormat { return f.format }

func (f *fakeStore) ResolveKey(key string) string {
	return store.ResolveKey(f.format, f.scope, key)
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[f.ResolveKey(key)]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key, value string) error {
	f.data[f.ResolveKey(key)] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.data, f.ResolveKey(key))
	return nil
}

func (f *fakeStore) ListKeys(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, f)
}

// TestResolveKeyBareName validates that a bare name resolves against the
// store's scope while composite keys pass through untouched.
func TestResolveKeyBareName(t *testing.T) {
	t.Parallel()

	f := slashFormat()
	sc := store.Scope{Domain: "prod", Project: "default", Version: "1.0.0"}

	resolved := store.ResolveKey(f, sc, "API_KEY")
	assert.Equal(t, f.BuildKey("API_KEY", "default", "prod", "1.0.0"), resolved)

	composite := f.BuildKey("OTHER", "elsewhere", "staging", "2.0.0")
	assert.Equal(t, composite, store.ResolveKey(f, sc, composite))
}

// TestDeleteAllEmptiesStore validates the default clear behavior: after
// DeleteAll, ListKeys is empty and Get on a previously-listed key reports
// not found.
func TestDeleteAllEmptiesStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := newFakeStore()
	require.NoError(t, fs.Set(ctx, "A", "1"))
	require.NoError(t, fs.Set(ctx, "B", "2"))
	require.NoError(t, fs.Set(ctx, "C", "3"))

	listed, err := fs.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	require.NoError(t, store.DeleteAll(ctx, fs))

	after, err := fs.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, after)

	for _, key := range listed {
		_, err := fs.Get(ctx, key)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
}

// TestCapabilitiesHas validates the capability set lookups.
func TestCapabilitiesHas(t *testing.T) {
	t.Parallel()

	writeOnly := store.Capabilities{Write: true, List: true, Clear: true}
	assert.False(t, writeOnly.Has(store.CapRead))
	assert.True(t, writeOnly.Has(store.CapWrite))
	assert.True(t, writeOnly.Has(store.CapList))
	assert.True(t, writeOnly.Has(store.CapClear))
	assert.False(t, writeOnly.Has(store.Capability("rotate")))
}

// TestDescriptorDisplayRows validates the default single-row derivation.
func TestDescriptorDisplayRows(t *testing.T) {
	t.Parallel()

	d := store.Descriptor{Name: "file", DisplayName: "Plain .env file", DocURL: "https://example.com"}
	rows := d.DisplayRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "file", rows[0].Name)
	assert.Equal(t, "Plain .env file", rows[0].DisplayName)

	d.Rows = []store.Row{{Name: "a"}, {Name: "b"}}
	assert.Len(t, d.DisplayRows(), 2)
}

// TestErrorTaxonomy validates the distinct error kinds.
func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	capErr := &store.CapabilityError{Store: "github", Capability: store.CapRead}
	assert.Contains(t, capErr.Error(), "github")
	assert.Contains(t, capErr.Error(), "read")
	assert.False(t, store.IsNotFound(capErr))

	backendErr := &store.BackendError{Store: "aws", Op: "get", Err: assert.AnError}
	assert.True(t, store.IsBackendError(backendErr))
	assert.ErrorIs(t, backendErr, assert.AnError)
	assert.False(t, store.IsBackendError(store.ErrNotFound))

	assert.True(t, store.IsNotFound(store.ErrNotFound))
}
