package stores

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/enveloper/internal/config"
	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

var azureDescriptor = store.Descriptor{
	Name:        "azure",
	DisplayName: "Azure Key Vault",
	DocURL:      "https://learn.microsoft.com/azure/key-vault/secrets/about-secrets",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// azureNameRe matches every character Key Vault rejects in a secret name.
// Only letters, digits and hyphens are allowed.
var azureNameRe = regexp.MustCompile(`[^0-9a-zA-Z-]`)

// AzureClientAPI defines the interface for Azure Key Vault secret
// operations. Listing is exposed as a plain method rather than the SDK's
// pager type so tests can mock it.
type AzureClientAPI interface {
	GetSecret(ctx context.Context, name string) (string, error)
	SetSecret(ctx context.Context, name, value string) error
	DeleteSecret(ctx context.Context, name string) error
	ListSecretNames(ctx context.Context) ([]string, error)
}

// azureSDKClient adapts the real azsecrets client to AzureClientAPI.
type azureSDKClient struct {
	client *azsecrets.Client
}

func (c *azureSDKClient) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := c.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", err
	}
	if resp.Value == nil {
		return "", nil
	}
	return *resp.Value, nil
}

func (c *azureSDKClient) SetSecret(ctx context.Context, name, value string) error {
	_, err := c.client.SetSecret(ctx, name, azsecrets.SetSecretParameters{Value: &value}, nil)
	return err
}

func (c *azureSDKClient) DeleteSecret(ctx context.Context, name string) error {
	_, err := c.client.DeleteSecret(ctx, name, nil)
	return err
}

func (c *azureSDKClient) ListSecretNames(ctx context.Context) ([]string, error) {
	var names []string
	pager := c.client.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Value {
			if item.ID != nil {
				names = append(names, item.ID.Name())
			}
		}
	}
	return names, nil
}

// AzureStore stores secrets in an Azure Key Vault. Key Vault secret names
// only allow letters, digits and hyphens, so segments join on a double
// hyphen, the version dots become single hyphens, and the namespace sentinel
// drops its underscores. Any remaining forbidden character in a resolved key
// is replaced by a hyphen; that substitution, like segment sanitization, is
// one-way.
type AzureStore struct {
	scoped
	client AzureClientAPI
}

// AzureOption configures an AzureStore.
type AzureOption func(*AzureStore)

// WithAzureClient sets a custom Key Vault client (for testing).
func WithAzureClient(client AzureClientAPI) AzureOption {
	return func(s *AzureStore) {
		s.client = client
	}
}

// NewAzureStore creates a store over an Azure Key Vault, authenticating via
// the default credential chain (environment, managed identity, az login).
func NewAzureStore(ctx context.Context, scope store.Scope, cfg config.AzureConfig, opts ...AzureOption) (*AzureStore, error) {
	s := &AzureStore{
		scoped: scoped{
			desc: azureDescriptor,
			format: store.KeyFormat{
				Prefix:           store.DefaultPrefix,
				KeySeparator:     "--",
				VersionSeparator: "-",
				Namespace:        "default",
			},
			scope: scope,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		if cfg.VaultURL == "" {
			return nil, dserrors.ConfigError{
				Field:      "azure.vault_url",
				Message:    "a Key Vault URL is required for the azure store",
				Suggestion: "Set azure.vault_url in .enveloper.yaml (e.g. https://my-vault.vault.azure.net/)",
			}
		}
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, &store.BackendError{Store: s.desc.Name, Op: "connect", Err: err}
		}
		client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
		if err != nil {
			return nil, &store.BackendError{Store: s.desc.Name, Op: "connect", Err: err}
		}
		s.client = &azureSDKClient{client: client}
	}
	return s, nil
}

// ResolveKey applies the vault's character rules on top of the standard
// composite resolution.
func (s *AzureStore) ResolveKey(key string) string {
	return azureNameRe.ReplaceAllString(s.scoped.ResolveKey(key), "-")
}

func isAzureNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func (s *AzureStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetSecret(ctx, s.ResolveKey(key))
	if err != nil {
		if isAzureNotFound(err) {
			return "", store.ErrNotFound
		}
		return "", &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	return value, nil
}

func (s *AzureStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.SetSecret(ctx, s.ResolveKey(key), value); err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return nil
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	err := s.client.DeleteSecret(ctx, s.ResolveKey(key))
	if err != nil && !isAzureNotFound(err) {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return nil
}

func (s *AzureStore) ListKeys(ctx context.Context) ([]string, error) {
	names, err := s.client.ListSecretNames(ctx)
	if err != nil {
		return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
	}

	// The filter prefix needs the same character substitution written keys
	// get, and Key Vault names compare case-insensitively.
	prefix := strings.ToLower(azureNameRe.ReplaceAllString(s.scopePrefix(), "-"))
	var keys []string
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *AzureStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
