package stores

import (
	"context"
	"os"
	"sort"

	"github.com/joho/godotenv"
	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

var fileDescriptor = store.Descriptor{
	Name:        "file",
	DisplayName: "Dotenv file",
	DocURL:      "https://github.com/joho/godotenv",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// FileStore reads and writes a dotenv file. Entries are stored under their
// plain variable name, not the composite form: a .env file is the export
// surface, so `DB_URL=...` is what belongs in it. Composite keys handed to
// Get or Set are projected down to their name segment first.
type FileStore struct {
	scoped
	path string
}

// NewFileStore creates a store over the dotenv file at path. The file need
// not exist yet; the first Set creates it.
func NewFileStore(scope store.Scope, path string) *FileStore {
	return &FileStore{
		scoped: scoped{
			desc:   fileDescriptor,
			format: store.KeyFormat{Prefix: store.DefaultPrefix, KeySeparator: "/", VersionSeparator: ".", Namespace: store.DefaultNamespace},
			scope:  scope,
		},
		path: path,
	}
}

// ResolveKey projects composite keys down to the plain variable name, the
// native key form of a dotenv file.
func (s *FileStore) ResolveKey(key string) string {
	return s.format.ExportName(key)
}

func (s *FileStore) read() (map[string]string, error) {
	env, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, &store.BackendError{Store: s.desc.Name, Op: "read", Err: err}
	}
	return env, nil
}

func (s *FileStore) write(env map[string]string) error {
	if err := godotenv.Write(env, s.path); err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "write", Err: err}
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	env, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := env[s.ResolveKey(key)]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	env, err := s.read()
	if err != nil {
		return err
	}
	env[s.ResolveKey(key)] = value
	return s.write(env)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	env, err := s.read()
	if err != nil {
		return err
	}
	name := s.ResolveKey(key)
	if _, ok := env[name]; !ok {
		return nil
	}
	delete(env, name)
	return s.write(env)
}

func (s *FileStore) ListKeys(ctx context.Context) ([]string, error) {
	env, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	if err := s.write(map[string]string{}); err != nil {
		return dserrors.UserError{
			Message: "Failed to clear env file",
			Details: err.Error(),
			Err:     err,
		}
	}
	return nil
}
