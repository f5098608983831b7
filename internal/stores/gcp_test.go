package stores_test

import (
	"context"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/internal/stores"
	"github.com/systmms/enveloper/pkg/store"
)

// mockGCPClient keeps secret payloads in a map keyed by secret ID.
type mockGCPClient struct {
	secrets map[string][]byte
	creates int
	adds    int
}

func newMockGCPClient() *mockGCPClient {
	return &mockGCPClient{secrets: make(map[string][]byte)}
}

func secretIDFromName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

func (m *mockGCPClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	// Name form: projects/p/secrets/<id>/versions/latest
	name := req.GetName()
	const suffix = "/versions/latest"
	id := secretIDFromName(name[:len(name)-len(suffix)])
	data, ok := m.secrets[id]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	}, nil
}

func (m *mockGCPClient) CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest) (*secretmanagerpb.Secret, error) {
	m.creates++
	if _, ok := m.secrets[req.GetSecretId()]; ok {
		return nil, status.Error(codes.AlreadyExists, "secret exists")
	}
	m.secrets[req.GetSecretId()] = nil
	return &secretmanagerpb.Secret{}, nil
}

func (m *mockGCPClient) AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	m.adds++
	id := secretIDFromName(req.GetParent())
	if _, ok := m.secrets[id]; !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	m.secrets[id] = req.GetPayload().GetData()
	return &secretmanagerpb.SecretVersion{}, nil
}

func (m *mockGCPClient) DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest) error {
	id := secretIDFromName(req.GetName())
	if _, ok := m.secrets[id]; !ok {
		return status.Error(codes.NotFound, "secret not found")
	}
	delete(m.secrets, id)
	return nil
}

func (m *mockGCPClient) ListSecretIDs(ctx context.Context, parent string) ([]string, error) {
	var ids []string
	for id := range m.secrets {
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestGCPStore(t *testing.T) (*stores.GCPStore, *mockGCPClient) {
	t.Helper()
	mock := newMockGCPClient()
	s, err := stores.NewGCPStore(context.Background(), testScope(),
		config.GCPConfig{Project: "test-project"}, stores.WithGCPClient(mock))
	require.NoError(t, err)
	return s, mock
}

// TestGCPKeyForm validates the double-underscore encoding with underscore
// version separators.
func TestGCPKeyForm(t *testing.T) {
	t.Parallel()

	s, _ := newTestGCPStore(t)
	assert.Equal(t, "envr__prod__myapp__1_0_0__DB_URL", s.ResolveKey("DB_URL"))
}

// TestGCPRequiresProject validates the fail-fast on a missing project.
func TestGCPRequiresProject(t *testing.T) {
	t.Parallel()

	// An injected client skips SDK construction, so only the project check
	// can fail.
	_, err := stores.NewGCPStore(context.Background(), testScope(),
		config.GCPConfig{}, stores.WithGCPClient(newMockGCPClient()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcp.project")
}

// TestGCPCreateThenAddVersion validates the two-step write path.
func TestGCPCreateThenAddVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mock := newTestGCPStore(t)

	require.NoError(t, s.Set(ctx, "KEY", "v1"))
	require.NoError(t, s.Set(ctx, "KEY", "v2"))
	assert.Equal(t, 2, mock.creates)
	assert.Equal(t, 2, mock.adds)

	got, err := s.Get(ctx, "KEY")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

// TestGCPGetMissing validates translation of the NotFound gRPC code.
func TestGCPGetMissing(t *testing.T) {
	t.Parallel()

	s, _ := newTestGCPStore(t)
	_, err := s.Get(context.Background(), "NOPE")
	assert.True(t, store.IsNotFound(err))
}

// TestGCPDeleteIdempotent validates deleting a missing secret.
func TestGCPDeleteIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestGCPStore(t)

	assert.NoError(t, s.Delete(ctx, "NOPE"))

	require.NoError(t, s.Set(ctx, "KEY", "v"))
	require.NoError(t, s.Delete(ctx, "KEY"))
	_, err := s.Get(ctx, "KEY")
	assert.True(t, store.IsNotFound(err))
}

// TestGCPListScoped validates prefix filtering of project-wide listings.
func TestGCPListScoped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, mock := newTestGCPStore(t)

	require.NoError(t, s.Set(ctx, "B_KEY", "2"))
	require.NoError(t, s.Set(ctx, "A_KEY", "1"))
	mock.secrets["envr__prod__other__1_0_0__X"] = []byte("3")
	mock.secrets["some-other-secret"] = []byte("4")

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"envr__prod__myapp__1_0_0__A_KEY",
		"envr__prod__myapp__1_0_0__B_KEY",
	}, keys)
}
