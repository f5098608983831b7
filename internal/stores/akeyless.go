package stores

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	akeyless "github.com/akeylesslabs/akeyless-go/v3"

	"github.com/systmms/enveloper/internal/config"
	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

var akeylessDescriptor = store.Descriptor{
	Name:        "akeyless",
	DisplayName: "Akeyless",
	DocURL:      "https://docs.akeyless.io/docs/static-secrets",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// defaultAkeylessGateway is the public Akeyless API endpoint used when no
// gateway is configured.
const defaultAkeylessGateway = "https://api.akeyless.io"

// errAkeylessNotFound signals a missing item from the client adapter.
var errAkeylessNotFound = errors.New("akeyless item not found")

// AkeylessClientAPI defines the interface for Akeyless operations. This
// allows for mocking in tests; the real implementation wraps the official
// SDK's V2Api.
type AkeylessClientAPI interface {
	Authenticate(ctx context.Context) (string, error)
	GetSecret(ctx context.Context, token, path string) (string, error)
	CreateSecret(ctx context.Context, token, path, value string) error
	UpdateSecret(ctx context.Context, token, path, value string) error
	DeleteItem(ctx context.Context, token, path string) error
	ListItems(ctx context.Context, token, path string) ([]string, error)
}

// akeylessSDKClient adapts the official Akeyless SDK to AkeylessClientAPI.
type akeylessSDKClient struct {
	api       *akeyless.APIClient
	accessID  string
	accessKey string
}

func newAkeylessSDKClient(cfg config.AkeylessConfig) *akeylessSDKClient {
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = defaultAkeylessGateway
	}

	configuration := akeyless.NewConfiguration()
	configuration.Servers = []akeyless.ServerConfiguration{{URL: gateway}}

	accessID := cfg.AccessID
	if accessID == "" {
		accessID = os.Getenv("AKEYLESS_ACCESS_ID")
	}
	accessKey := cfg.AccessKey
	if accessKey == "" {
		accessKey = os.Getenv("AKEYLESS_ACCESS_KEY")
	}

	return &akeylessSDKClient{
		api:       akeyless.NewAPIClient(configuration),
		accessID:  accessID,
		accessKey: accessKey,
	}
}

func (c *akeylessSDKClient) Authenticate(ctx context.Context) (string, error) {
	body := akeyless.NewAuthWithDefaults()
	body.SetAccessId(c.accessID)
	body.SetAccessKey(c.accessKey)

	res, _, err := c.api.V2Api.Auth(ctx).Body(*body).Execute()
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	return res.GetToken(), nil
}

func (c *akeylessSDKClient) GetSecret(ctx context.Context, token, path string) (string, error) {
	body := akeyless.NewGetSecretValue([]string{path})
	body.SetToken(token)

	res, _, err := c.api.V2Api.GetSecretValue(ctx).Body(*body).Execute()
	if err != nil {
		return "", err
	}
	value, ok := res[path]
	if !ok {
		return "", errAkeylessNotFound
	}
	return value, nil
}

func (c *akeylessSDKClient) CreateSecret(ctx context.Context, token, path, value string) error {
	body := akeyless.NewCreateSecret(path, value)
	body.SetToken(token)

	_, _, err := c.api.V2Api.CreateSecret(ctx).Body(*body).Execute()
	return err
}

func (c *akeylessSDKClient) UpdateSecret(ctx context.Context, token, path, value string) error {
	body := akeyless.NewUpdateSecretVal(path, value)
	body.SetToken(token)

	_, _, err := c.api.V2Api.UpdateSecretVal(ctx).Body(*body).Execute()
	return err
}

func (c *akeylessSDKClient) DeleteItem(ctx context.Context, token, path string) error {
	body := akeyless.NewDeleteItem(path)
	body.SetDeleteImmediately(true)
	body.SetToken(token)

	_, _, err := c.api.V2Api.DeleteItem(ctx).Body(*body).Execute()
	return err
}

func (c *akeylessSDKClient) ListItems(ctx context.Context, token, path string) ([]string, error) {
	body := akeyless.NewListItems()
	body.SetPath(path)
	body.SetToken(token)

	res, _, err := c.api.V2Api.ListItems(ctx).Body(*body).Execute()
	if err != nil {
		return nil, err
	}

	items := res.GetItems()
	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.GetItemName())
	}
	return paths, nil
}

// AkeylessStore stores secrets as Akeyless static secrets. Item paths are
// slash-delimited with a leading slash, mirroring the SSM layout.
type AkeylessStore struct {
	scoped
	client AkeylessClientAPI
	token  string
}

// AkeylessOption configures an AkeylessStore.
type AkeylessOption func(*AkeylessStore)

// WithAkeylessClient sets a custom Akeyless client (for testing).
func WithAkeylessClient(client AkeylessClientAPI) AkeylessOption {
	return func(s *AkeylessStore) {
		s.client = client
	}
}

// NewAkeylessStore creates a store over Akeyless static secrets.
func NewAkeylessStore(scope store.Scope, cfg config.AkeylessConfig, opts ...AkeylessOption) (*AkeylessStore, error) {
	s := &AkeylessStore{
		scoped: scoped{
			desc: akeylessDescriptor,
			format: store.KeyFormat{
				Prefix:           store.DefaultPrefix,
				KeySeparator:     "/",
				VersionSeparator: ".",
				Namespace:        store.DefaultNamespace,
				LeadingSeparator: true,
			},
			scope: scope,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		client := newAkeylessSDKClient(cfg)
		if client.accessID == "" || client.accessKey == "" {
			return nil, dserrors.ConfigError{
				Field:      "akeyless.access_id",
				Message:    "Akeyless credentials are required for the akeyless store",
				Suggestion: "Set akeyless.access_id and akeyless.access_key in .enveloper.yaml, or AKEYLESS_ACCESS_ID and AKEYLESS_ACCESS_KEY",
			}
		}
		s.client = client
	}
	return s, nil
}

// authenticate obtains the session token once per store instance.
func (s *AkeylessStore) authenticate(ctx context.Context) (string, error) {
	if s.token != "" {
		return s.token, nil
	}
	token, err := s.client.Authenticate(ctx)
	if err != nil {
		return "", &store.BackendError{Store: s.desc.Name, Op: "auth", Err: err}
	}
	s.token = token
	return token, nil
}

func (s *AkeylessStore) Get(ctx context.Context, key string) (string, error) {
	token, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}

	value, err := s.client.GetSecret(ctx, token, s.ResolveKey(key))
	if err != nil {
		if errors.Is(err, errAkeylessNotFound) || strings.Contains(err.Error(), "not found") {
			return "", store.ErrNotFound
		}
		return "", &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	return value, nil
}

func (s *AkeylessStore) Set(ctx context.Context, key, value string) error {
	token, err := s.authenticate(ctx)
	if err != nil {
		return err
	}

	resolved := s.ResolveKey(key)
	err = s.client.CreateSecret(ctx, token, resolved, value)
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "already exist") {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}

	if err := s.client.UpdateSecret(ctx, token, resolved, value); err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return nil
}

func (s *AkeylessStore) Delete(ctx context.Context, key string) error {
	token, err := s.authenticate(ctx)
	if err != nil {
		return err
	}

	err = s.client.DeleteItem(ctx, token, s.ResolveKey(key))
	if err != nil && !strings.Contains(err.Error(), "not found") {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return nil
}

func (s *AkeylessStore) ListKeys(ctx context.Context) ([]string, error) {
	token, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	prefix := s.scopePrefix()
	path := strings.TrimSuffix(prefix, s.format.KeySeparator)

	items, err := s.client.ListItems(ctx, token, path)
	if err != nil {
		return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
	}

	var keys []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			keys = append(keys, item)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *AkeylessStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
