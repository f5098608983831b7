package stores

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/systmms/enveloper/pkg/store"
)

// keyringService is the service name every secret is filed under in the
// platform keychain.
const keyringService = "enveloper"

// manifestAccount is the reserved keychain account holding the list of keys
// for one scope. Platform keychains have no enumeration API, so the store
// maintains its own index.
const manifestAccount = "__keys__"

var keychainDescriptor = store.Descriptor{
	Name:        "local",
	DisplayName: "Local keychain",
	DocURL:      "https://github.com/zalando/go-keyring",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
	Rows: []store.Row{
		{Name: "local", DisplayName: "macOS Keychain", DocURL: "https://support.apple.com/guide/keychain-access/welcome/mac"},
		{Name: "local", DisplayName: "Linux Secret Service (gnome-keyring, KWallet)", DocURL: "https://specifications.freedesktop.org/secret-service/latest/"},
		{Name: "local", DisplayName: "Windows Credential Manager", DocURL: "https://learn.microsoft.com/windows/win32/secauthn/credentials-management"},
	},
}

// KeyringClient is the keychain surface used by the store, mirroring the
// go-keyring package functions so tests can substitute an in-memory fake.
type KeyringClient interface {
	Set(service, account, value string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// systemKeyring routes to the real platform keychain.
type systemKeyring struct{}

func (systemKeyring) Set(service, account, value string) error { return keyring.Set(service, account, value) }
func (systemKeyring) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}
func (systemKeyring) Delete(service, account string) error { return keyring.Delete(service, account) }

// KeychainStore stores secrets in the operating system keychain, one
// keychain entry per composite key plus a manifest entry per scope.
type KeychainStore struct {
	scoped
	client KeyringClient
}

// KeychainOption configures a KeychainStore.
type KeychainOption func(*KeychainStore)

// WithKeyringClient sets a custom keyring client (for testing).
func WithKeyringClient(client KeyringClient) KeychainOption {
	return func(s *KeychainStore) {
		s.client = client
	}
}

// NewKeychainStore creates a store over the platform keychain.
func NewKeychainStore(scope store.Scope, opts ...KeychainOption) *KeychainStore {
	s := &KeychainStore{
		scoped: scoped{
			desc:   keychainDescriptor,
			format: store.KeyFormat{Prefix: store.DefaultPrefix, KeySeparator: "/", VersionSeparator: ".", Namespace: store.DefaultNamespace},
			scope:  scope,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = systemKeyring{}
	}
	return s
}

// manifestKey is the keychain account under which this scope's key index
// lives. It reuses the scope prefix so different projects never share an
// index.
func (s *KeychainStore) manifestKey() string {
	return manifestAccount + "/" + s.scopePrefix()
}

func (s *KeychainStore) readManifest() ([]string, error) {
	raw, err := s.client.Get(keyringService, s.manifestKey())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
	}
	var keys []string
	for _, line := range strings.Split(raw, "\n") {
		if line != "" {
			keys = append(keys, line)
		}
	}
	return keys, nil
}

func (s *KeychainStore) writeManifest(keys []string) error {
	if len(keys) == 0 {
		if err := s.client.Delete(keyringService, s.manifestKey()); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
		}
		return nil
	}
	sort.Strings(keys)
	if err := s.client.Set(keyringService, s.manifestKey(), strings.Join(keys, "\n")); err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
	}
	return nil
}

func (s *KeychainStore) addToManifest(key string) error {
	keys, err := s.readManifest()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return s.writeManifest(append(keys, key))
}

func (s *KeychainStore) removeFromManifest(key string) error {
	keys, err := s.readManifest()
	if err != nil {
		return err
	}
	kept := keys[:0]
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	if len(kept) == len(keys) {
		return nil
	}
	return s.writeManifest(kept)
}

func (s *KeychainStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(keyringService, s.ResolveKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", store.ErrNotFound
		}
		return "", &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	return value, nil
}

func (s *KeychainStore) Set(ctx context.Context, key, value string) error {
	resolved := s.ResolveKey(key)
	if err := s.client.Set(keyringService, resolved, value); err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return s.addToManifest(resolved)
}

func (s *KeychainStore) Delete(ctx context.Context, key string) error {
	resolved := s.ResolveKey(key)
	if err := s.client.Delete(keyringService, resolved); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return s.removeFromManifest(resolved)
}

func (s *KeychainStore) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *KeychainStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
