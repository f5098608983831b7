// Package stores contains the backend implementations behind the store
// registry: platform keychains, dotenv files, the cloud secret managers,
// HashiCorp Vault, Akeyless and GitHub Actions secrets.
//
// Each backend wraps its SDK behind a small client interface so tests can
// inject mocks, and embeds scoped for the key-encoding boilerplate shared by
// every store.
package stores

import (
	"github.com/systmms/enveloper/pkg/store"
)

// scoped carries the descriptor, key format and scope every backend needs,
// and provides the three metadata methods of the Store interface.
type scoped struct {
	desc   store.Descriptor
	format store.KeyFormat
	scope  store.Scope
}

func (s scoped) Descriptor() store.Descriptor { return s.desc }

func (s scoped) Format() store.KeyFormat { return s.format }

func (s scoped) ResolveKey(key string) string {
	return store.ResolveKey(s.format, s.scope, key)
}

// scopePrefix is the native key prefix covering every version of the store's
// domain and project. Backends use it to restrict listings to their scope.
func (s scoped) scopePrefix() string {
	return s.format.DefaultPrefix(s.scope.Domain, s.scope.Project)
}
