package store

import (
	"context"
	"sort"
)

// Store defines the interface that all secret store backends must implement.
//
// A Store is scoped: it is constructed for one (domain, project, version)
// tuple and one backend, lives for a single logical operation, and is
// discarded afterwards. Implementations are not required to be safe for
// concurrent use; the execution model is one operation per process.
//
// Key arguments to Get, Set and Delete may be either a bare secret name
// ("DB_URL") or an already-composite key in the store's native form. Bare
// names are resolved against the store's scope with ResolveKey before the
// backend is called, so
//
//	s.Get(ctx, "DB_URL")
//
// and
//
//	s.Get(ctx, s.Format().BuildKey("DB_URL", project, domain, version))
//
// address the same secret. ListKeys returns keys in native form, so Get on
// any returned key works without re-resolution.
//
// Failure semantics: backend authentication and network failures are not
// retried here; they surface as *BackendError. A missing secret is
// ErrNotFound from Get, and no error at all from Delete.
type Store interface {
	// Descriptor returns the backend's static capability metadata.
	Descriptor() Descriptor

	// Format returns the key encoding this backend uses.
	Format() KeyFormat

	// ResolveKey maps a bare name to the composite key for this store's
	// scope; keys that already parse as composite are returned unchanged.
	ResolveKey(key string) string

	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set creates or overwrites key with value. No separate update path
	// exists; overwriting is always allowed.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a key that does not exist is not an
	// error.
	Delete(ctx context.Context, key string) error

	// ListKeys returns every key in this store's scope, in native form.
	ListKeys(ctx context.Context) ([]string, error)

	// Clear removes every key in this store's scope. Irreversible; callers
	// must obtain explicit confirmation before invoking it.
	Clear(ctx context.Context) error
}

// Scope is the namespace a store instance operates in, fixed at construction.
type Scope struct {
	Domain  string
	Project string
	Version string
}

// Capability names one operation a backend may support.
type Capability string

// The four capabilities a backend can declare. A store invoked for an
// operation outside its capability set returns *CapabilityError.
const (
	CapRead  Capability = "read"
	CapWrite Capability = "write"
	CapList  Capability = "list"
	CapClear Capability = "clear"
)

// Capabilities is the set of operations a backend supports.
type Capabilities struct {
	Read  bool
	Write bool
	List  bool
	Clear bool
}

// Has reports whether c includes the given capability.
func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case CapRead:
		return c.Read
	case CapWrite:
		return c.Write
	case CapList:
		return c.List
	case CapClear:
		return c.Clear
	}
	return false
}

// Row is one display line for a backend in the services table. Most backends
// have exactly one; the keychain backend lists one per supported platform.
type Row struct {
	Name        string
	DisplayName string
	DocURL      string
}

// Descriptor is the static, immutable metadata registered for a backend:
// its identifying name, human description, documentation link, capability
// set and display rows.
type Descriptor struct {
	Name         string
	DisplayName  string
	DocURL       string
	Capabilities Capabilities
	Rows         []Row
}

// DisplayRows returns the descriptor's rows, defaulting to a single row
// derived from the name and display name when none were declared.
func (d Descriptor) DisplayRows() []Row {
	if len(d.Rows) > 0 {
		return d.Rows
	}
	return []Row{{Name: d.Name, DisplayName: d.DisplayName, DocURL: d.DocURL}}
}

// ResolveKey is the shared bare-name resolution used by backends: a key that
// already parses as composite under f is passed through, anything else is
// treated as a name and encoded with the scope's segments.
func ResolveKey(f KeyFormat, sc Scope, key string) string {
	if f.ParseKey(key) != nil {
		return key
	}
	return f.BuildKey(key, sc.Project, sc.Domain, sc.Version)
}

// DeleteAll is the default Clear implementation: list every key and delete
// each one. Backends with a native bulk wipe override Clear for efficiency;
// the observable result must be the same (no keys remain in scope).
// Individual not-found keys are skipped since Delete is idempotent.
func DeleteAll(ctx context.Context, s Store) error {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return err
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
