package stores_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/internal/stores"
	"github.com/systmms/enveloper/pkg/store"
)

// mockSSMClient keeps parameters in a map and records the last inputs.
type mockSSMClient struct {
	params  map[string]string
	lastPut *ssm.PutParameterInput
}

func newMockSSMClient() *mockSSMClient {
	return &mockSSMClient{params: make(map[string]string)}
}

func (m *mockSSMClient) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	v, ok := m.params[*in.Name]
	if !ok {
		return nil, &types.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{
		Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)},
	}, nil
}

func (m *mockSSMClient) PutParameter(ctx context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	m.lastPut = in
	m.params[*in.Name] = *in.Value
	return &ssm.PutParameterOutput{}, nil
}

func (m *mockSSMClient) DeleteParameter(ctx context.Context, in *ssm.DeleteParameterInput, _ ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	if _, ok := m.params[*in.Name]; !ok {
		return nil, &types.ParameterNotFound{}
	}
	delete(m.params, *in.Name)
	return &ssm.DeleteParameterOutput{}, nil
}

func (m *mockSSMClient) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	var out ssm.GetParametersByPathOutput
	for name := range m.params {
		if strings.HasPrefix(name, *in.Path+"/") {
			out.Parameters = append(out.Parameters, types.Parameter{Name: aws.String(name)})
		}
	}
	return &out, nil
}

func newTestSSMStore(t *testing.T) (*stores.SSMStore, *mockSSMClient) {
	t.Helper()
	mock := newMockSSMClient()
	s, err := stores.NewSSMStore(context.Background(), testScope(), config.AWSConfig{}, stores.WithSSMClient(mock))
	require.NoError(t, err)
	return s, mock
}

// TestSSMStoreKeysUseLeadingSlash validates the parameter path form.
func TestSSMStoreKeysUseLeadingSlash(t *testing.T) {
	t.Parallel()

	s, _ := newTestSSMStore(t)
	assert.Equal(t, "/envr/prod/myapp/1.0.0/DB_URL", s.ResolveKey("DB_URL"))
}

// TestSSMStoreRoundTrip validates set and get through the mock client.
func TestSSMStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mock := newTestSSMStore(t)

	require.NoError(t, s.Set(ctx, "DB_URL", "postgres://localhost"))

	// Writes go out as overwritable SecureString parameters.
	require.NotNil(t, mock.lastPut)
	assert.Equal(t, types.ParameterTypeSecureString, mock.lastPut.Type)
	assert.True(t, *mock.lastPut.Overwrite)

	got, err := s.Get(ctx, "DB_URL")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost", got)
}

// TestSSMStoreGetMissing validates translation of ParameterNotFound.
func TestSSMStoreGetMissing(t *testing.T) {
	t.Parallel()

	s, _ := newTestSSMStore(t)
	_, err := s.Get(context.Background(), "NOPE")
	assert.True(t, store.IsNotFound(err))
}

// TestSSMStoreDeleteIdempotent validates that a missing parameter deletes
// cleanly.
func TestSSMStoreDeleteIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestSSMStore(t)

	assert.NoError(t, s.Delete(ctx, "NOPE"))

	require.NoError(t, s.Set(ctx, "KEY", "v"))
	require.NoError(t, s.Delete(ctx, "KEY"))
	_, err := s.Get(ctx, "KEY")
	assert.True(t, store.IsNotFound(err))
}

// TestSSMStoreListScoped validates hierarchy listing and sorting.
func TestSSMStoreListScoped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mock := newTestSSMStore(t)

	require.NoError(t, s.Set(ctx, "B_KEY", "2"))
	require.NoError(t, s.Set(ctx, "A_KEY", "1"))
	mock.params["/envr/prod/other/1.0.0/X"] = "3"

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/envr/prod/myapp/1.0.0/A_KEY",
		"/envr/prod/myapp/1.0.0/B_KEY",
	}, keys)
}

// TestSSMStoreClear validates list-then-delete clearing.
func TestSSMStoreClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mock := newTestSSMStore(t)

	require.NoError(t, s.Set(ctx, "A", "1"))
	require.NoError(t, s.Set(ctx, "B", "2"))
	mock.params["/envr/prod/other/1.0.0/X"] = "3"

	require.NoError(t, s.Clear(ctx))

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Contains(t, mock.params, "/envr/prod/other/1.0.0/X")
}
