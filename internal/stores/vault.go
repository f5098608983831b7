package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/systmms/enveloper/internal/config"
	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

var vaultDescriptor = store.Descriptor{
	Name:        "vault",
	DisplayName: "HashiCorp Vault (KV v2)",
	DocURL:      "https://developer.hashicorp.com/vault/docs/secrets/kv/kv-v2",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// vaultTimeout bounds every request to the Vault HTTP API.
const vaultTimeout = 30 * time.Second

// defaultVaultMount is the KV v2 mount used when none is configured.
const defaultVaultMount = "secret"

// VaultStore stores secrets in a HashiCorp Vault KV v2 mount. All keys of
// one scope live in a single KV document, so a write is a read-modify-write
// of that document and Clear deletes it outright. Keeping one document per
// scope means one Vault policy path covers the whole project.
type VaultStore struct {
	scoped
	address string
	token   string
	mount   string
	http    *http.Client
}

// VaultOption configures a VaultStore.
type VaultOption func(*VaultStore)

// WithVaultHTTPClient sets a custom HTTP client (for testing).
func WithVaultHTTPClient(client *http.Client) VaultOption {
	return func(s *VaultStore) {
		s.http = client
	}
}

// NewVaultStore creates a store over a Vault KV v2 mount. The address falls
// back to VAULT_ADDR and the token always comes from VAULT_TOKEN.
func NewVaultStore(scope store.Scope, cfg config.VaultConfig, opts ...VaultOption) (*VaultStore, error) {
	address := cfg.URL
	if address == "" {
		address = os.Getenv("VAULT_ADDR")
	}
	if address == "" {
		return nil, dserrors.ConfigError{
			Field:      "vault.url",
			Message:    "a Vault address is required for the vault store",
			Suggestion: "Set vault.url in .enveloper.yaml or the VAULT_ADDR environment variable",
		}
	}

	mount := cfg.Mount
	if mount == "" {
		mount = defaultVaultMount
	}

	s := &VaultStore{
		scoped: scoped{
			desc:   vaultDescriptor,
			format: store.KeyFormat{Prefix: store.DefaultPrefix, KeySeparator: "/", VersionSeparator: ".", Namespace: store.DefaultNamespace},
			scope:  scope,
		},
		address: strings.TrimSuffix(address, "/"),
		token:   os.Getenv("VAULT_TOKEN"),
		mount:   mount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// docPath is the KV v2 path of this scope's secret document, relative to the
// mount.
func (s *VaultStore) docPath() string {
	return fmt.Sprintf("enveloper/%s/%s",
		s.format.SanitizeSegment(s.scope.Domain),
		s.format.SanitizeSegment(s.scope.Project))
}

func (s *VaultStore) url(prefix string) string {
	return fmt.Sprintf("%s/v1/%s/%s/%s", s.address, s.mount, prefix, s.docPath())
}

func (s *VaultStore) httpClient() *http.Client {
	if s.http != nil {
		return s.http
	}
	return &http.Client{Timeout: vaultTimeout}
}

func (s *VaultStore) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.httpClient().Do(req)
}

// readDoc fetches the scope document. A missing document is an empty map,
// not an error.
func (s *VaultStore) readDoc(ctx context.Context) (map[string]string, error) {
	resp, err := s.do(ctx, http.MethodGet, s.url("data"), nil)
	if err != nil {
		return nil, &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return map[string]string{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &store.BackendError{
			Store: s.desc.Name,
			Op:    "get",
			Err:   fmt.Errorf("vault returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var response struct {
		Data struct {
			Data map[string]string `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	if response.Data.Data == nil {
		return map[string]string{}, nil
	}
	return response.Data.Data, nil
}

func (s *VaultStore) writeDoc(ctx context.Context, doc map[string]string) error {
	payload := map[string]interface{}{"data": doc}
	resp, err := s.do(ctx, http.MethodPost, s.url("data"), payload)
	if err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return &store.BackendError{
			Store: s.desc.Name,
			Op:    "set",
			Err:   fmt.Errorf("vault returned status %d: %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}

func (s *VaultStore) Get(ctx context.Context, key string) (string, error) {
	doc, err := s.readDoc(ctx)
	if err != nil {
		return "", err
	}
	v, ok := doc[s.ResolveKey(key)]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *VaultStore) Set(ctx context.Context, key, value string) error {
	doc, err := s.readDoc(ctx)
	if err != nil {
		return err
	}
	doc[s.ResolveKey(key)] = value
	return s.writeDoc(ctx, doc)
}

func (s *VaultStore) Delete(ctx context.Context, key string) error {
	doc, err := s.readDoc(ctx)
	if err != nil {
		return err
	}
	resolved := s.ResolveKey(key)
	if _, ok := doc[resolved]; !ok {
		return nil
	}
	delete(doc, resolved)
	return s.writeDoc(ctx, doc)
}

func (s *VaultStore) ListKeys(ctx context.Context) ([]string, error) {
	doc, err := s.readDoc(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear deletes the scope document's metadata, destroying every version at
// once instead of deleting keys one by one.
func (s *VaultStore) Clear(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodDelete, s.url("metadata"), nil)
	if err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "clear", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return &store.BackendError{
			Store: s.desc.Name,
			Op:    "clear",
			Err:   fmt.Errorf("vault returned status %d: %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}
