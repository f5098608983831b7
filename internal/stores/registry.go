package stores

import (
	"context"
	"sort"

	"github.com/systmms/enveloper/internal/config"
	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

// Factory creates a store instance for a resolved scope.
type Factory func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error)

// Registration pairs a backend's static descriptor with its factory, so the
// services table can be rendered without constructing (and authenticating)
// any backend.
type Registration struct {
	Descriptor store.Descriptor
	New        Factory
}

// Registry maps service names to backend registrations.
type Registry struct {
	entries map[string]Registration
}

func toStoreScope(sc config.Scope) store.Scope {
	return store.Scope{Domain: sc.Domain, Project: sc.Project, Version: sc.Version}
}

// NewRegistry creates a registry with all built-in backends registered.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Registration)}

	r.Register(Registration{Descriptor: keychainDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewKeychainStore(toStoreScope(sc)), nil
	}})
	r.Register(Registration{Descriptor: fileDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewFileStore(toStoreScope(sc), sc.Path), nil
	}})
	r.Register(Registration{Descriptor: memoryDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewMemoryStore(toStoreScope(sc)), nil
	}})
	r.Register(Registration{Descriptor: ssmDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewSSMStore(ctx, toStoreScope(sc), file.AWS)
	}})
	r.Register(Registration{Descriptor: secretsManagerDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewSecretsManagerStore(ctx, toStoreScope(sc), file.AWS)
	}})
	r.Register(Registration{Descriptor: gcpDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewGCPStore(ctx, toStoreScope(sc), file.GCP)
	}})
	r.Register(Registration{Descriptor: azureDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewAzureStore(ctx, toStoreScope(sc), file.Azure)
	}})
	r.Register(Registration{Descriptor: vaultDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewVaultStore(toStoreScope(sc), file.Vault)
	}})
	r.Register(Registration{Descriptor: akeylessDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewAkeylessStore(toStoreScope(sc), file.Akeyless)
	}})
	r.Register(Registration{Descriptor: githubDescriptor, New: func(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
		return NewGitHubStore(toStoreScope(sc), file.GitHub), nil
	}})

	return r
}

// Register adds or replaces a backend registration under its descriptor name.
func (r *Registry) Register(reg Registration) {
	r.entries[reg.Descriptor.Name] = reg
}

// Lookup returns the registration for a service name.
func (r *Registry) Lookup(name string) (Registration, bool) {
	reg, ok := r.entries[name]
	return reg, ok
}

// Names returns the registered service names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open constructs the store for sc.Service. An unknown service name is a
// configuration error listing the valid names.
func (r *Registry) Open(ctx context.Context, sc config.Scope, file *config.File) (store.Store, error) {
	if file == nil {
		file = &config.File{}
	}
	reg, ok := r.entries[sc.Service]
	if !ok {
		return nil, dserrors.ConfigError{
			Field:      "service",
			Value:      sc.Service,
			Message:    "unknown store service",
			Suggestion: "Run 'enveloper services' to list available stores",
		}
	}
	return reg.New(ctx, sc, file)
}
