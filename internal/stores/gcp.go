package stores

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/enveloper/internal/config"
	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

var gcpDescriptor = store.Descriptor{
	Name:        "gcp",
	DisplayName: "Google Cloud Secret Manager",
	DocURL:      "https://cloud.google.com/secret-manager/docs",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// GCPClientAPI defines the interface for Google Cloud Secret Manager
// operations. Listing is exposed as a plain method rather than the SDK's
// iterator type so tests can mock it.
type GCPClientAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest) (*secretmanagerpb.Secret, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest) (*secretmanagerpb.SecretVersion, error)
	DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest) error
	ListSecretIDs(ctx context.Context, parent string) ([]string, error)
}

// gcpSDKClient adapts the real Secret Manager client to GCPClientAPI.
type gcpSDKClient struct {
	client *secretmanager.Client
}

func (c *gcpSDKClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return c.client.AccessSecretVersion(ctx, req)
}

func (c *gcpSDKClient) CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest) (*secretmanagerpb.Secret, error) {
	return c.client.CreateSecret(ctx, req)
}

func (c *gcpSDKClient) AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	return c.client.AddSecretVersion(ctx, req)
}

func (c *gcpSDKClient) DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest) error {
	return c.client.DeleteSecret(ctx, req)
}

func (c *gcpSDKClient) ListSecretIDs(ctx context.Context, parent string) ([]string, error) {
	it := c.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{Parent: parent})
	var ids []string
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		// Secret names come back fully qualified; keep only the ID.
		name := secret.GetName()
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		ids = append(ids, name)
	}
	return ids, nil
}

// GCPStore stores secrets in Google Cloud Secret Manager, one secret per
// composite key. Secret IDs only allow letters, digits, hyphens and
// underscores, so segments join on a double underscore and the version dots
// become single underscores.
type GCPStore struct {
	scoped
	client  GCPClientAPI
	project string
}

// GCPOption configures a GCPStore.
type GCPOption func(*GCPStore)

// WithGCPClient sets a custom Secret Manager client (for testing).
func WithGCPClient(client GCPClientAPI) GCPOption {
	return func(s *GCPStore) {
		s.client = client
	}
}

// NewGCPStore creates a store over Google Cloud Secret Manager.
func NewGCPStore(ctx context.Context, scope store.Scope, cfg config.GCPConfig, opts ...GCPOption) (*GCPStore, error) {
	project := cfg.Project
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	s := &GCPStore{
		scoped: scoped{
			desc: gcpDescriptor,
			format: store.KeyFormat{
				Prefix:           store.DefaultPrefix,
				KeySeparator:     "__",
				VersionSeparator: "_",
				Namespace:        store.DefaultNamespace,
			},
			scope: scope,
		},
		project: project,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.project == "" {
		return nil, dserrors.ConfigError{
			Field:      "gcp.project",
			Message:    "a Google Cloud project is required for the gcp store",
			Suggestion: "Set gcp.project in .enveloper.yaml or the GOOGLE_CLOUD_PROJECT environment variable",
		}
	}

	if s.client == nil {
		var clientOpts []option.ClientOption
		if cfg.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		client, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, &store.BackendError{Store: s.desc.Name, Op: "connect", Err: err}
		}
		s.client = &gcpSDKClient{client: client}
	}
	return s, nil
}

func (s *GCPStore) parent() string {
	return "projects/" + s.project
}

func (s *GCPStore) secretName(id string) string {
	return fmt.Sprintf("%s/secrets/%s", s.parent(), id)
}

func (s *GCPStore) Get(ctx context.Context, key string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretName(s.ResolveKey(key)) + "/versions/latest",
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", store.ErrNotFound
		}
		return "", &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *GCPStore) Set(ctx context.Context, key, value string) error {
	id := s.ResolveKey(key)

	_, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   s.parent(),
		SecretId: id,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}

	_, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  s.secretName(id),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return nil
}

func (s *GCPStore) Delete(ctx context.Context, key string) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(s.ResolveKey(key)),
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return nil
}

func (s *GCPStore) ListKeys(ctx context.Context) ([]string, error) {
	ids, err := s.client.ListSecretIDs(ctx, s.parent())
	if err != nil {
		return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
	}

	prefix := s.scopePrefix()
	var keys []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *GCPStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
