package stores

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/systmms/enveloper/pkg/store"
)

var memoryDescriptor = store.Descriptor{
	Name:        "memory",
	DisplayName: "In-memory store (testing)",
	DocURL:      "https://github.com/systmms/enveloper",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// MemoryStore keeps secrets in a process-local map. It backs tests and dry
// runs; nothing survives process exit.
type MemoryStore struct {
	scoped

	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store for the given scope.
func NewMemoryStore(scope store.Scope) *MemoryStore {
	return &MemoryStore{
		scoped: scoped{
			desc:   memoryDescriptor,
			format: store.KeyFormat{Prefix: store.DefaultPrefix, KeySeparator: "/", VersionSeparator: ".", Namespace: store.DefaultNamespace},
			scope:  scope,
		},
		values: make(map[string]string),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[s.ResolveKey(key)]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[s.ResolveKey(key)] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, s.ResolveKey(key))
	return nil
}

func (s *MemoryStore) ListKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := s.scopePrefix()
	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
