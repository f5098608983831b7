package config

import (
	"fmt"

	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

// Environment variables consulted during scope resolution.
const (
	EnvProject = "ENVELOPER_PROJECT"
	EnvDomain  = "ENVELOPER_DOMAIN"
	EnvService = "ENVELOPER_SERVICE"
	EnvVersion = "ENVELOPER_VERSION"
)

// Defaults applied when no other source provides a value.
const (
	DefaultService = "local"
	DefaultEnvFile = ".env"
)

// Options carries command-line values into Resolve. Each field is a pointer:
// nil means the flag was never set, a non-nil pointer means the user typed
// the flag, even with an empty value. Presence beats content at every layer.
type Options struct {
	Project *string
	Domain  *string
	Service *string
	Version *string
	Path    *string
}

// Scope is a fully resolved execution scope. Every field is concrete; the
// precedence chain guarantees a value for each.
type Scope struct {
	Project string
	Domain  string
	Service string
	Version string
	Path    string
}

// String renders the scope for debug output.
func (s Scope) String() string {
	return fmt.Sprintf("service=%s project=%s domain=%s version=%s path=%s",
		s.Service, s.Project, s.Domain, s.Version, s.Path)
}

// LookupEnv is the environment lookup used by Resolve, matching
// os.LookupEnv. Injected so tests control the environment without mutating
// the process.
type LookupEnv func(key string) (string, bool)

// Resolve applies the precedence chain to every scope field:
//
//	command-line flag > environment variable > configuration file > default
//
// A layer wins by presence, not by content: an environment variable set to
// the empty string still shadows the configuration file. The resolved
// version must be a three-part semantic version; anything else fails here
// rather than surfacing later as a malformed key.
func Resolve(opts Options, lookupEnv LookupEnv, file *File) (Scope, error) {
	if file == nil {
		file = &File{}
	}

	sc := Scope{
		Project: resolveField(opts.Project, EnvProject, lookupEnv, file.Project, store.DefaultNamespace),
		Domain:  resolveField(opts.Domain, EnvDomain, lookupEnv, file.Domain, store.DefaultNamespace),
		Service: resolveField(opts.Service, EnvService, lookupEnv, file.Service, DefaultService),
		Version: resolveField(opts.Version, EnvVersion, lookupEnv, file.Version, store.DefaultVersion),
	}
	sc.Path = resolvePath(opts.Path, file, sc.Domain)

	if !store.ValidVersion(sc.Version) {
		return Scope{}, dserrors.ConfigError{
			Field:      "version",
			Value:      sc.Version,
			Message:    "not a three-part semantic version",
			Suggestion: "Use the MAJOR.MINOR.PATCH form, e.g. 1.0.0",
		}
	}

	return sc, nil
}

func resolveField(flag *string, envName string, lookupEnv LookupEnv, fileVal *string, def string) string {
	if flag != nil {
		return *flag
	}
	if lookupEnv != nil {
		if v, ok := lookupEnv(envName); ok {
			return v
		}
	}
	if fileVal != nil {
		return *fileVal
	}
	return def
}

// resolvePath resolves the dotenv file path. There is no environment
// variable layer for the path; the per-domain override in the configuration
// file sits between the flag and the default.
func resolvePath(flag *string, file *File, domain string) string {
	if flag != nil {
		return *flag
	}
	if dc, ok := file.Domains[domain]; ok && dc.EnvFile != nil {
		return *dc.EnvFile
	}
	return DefaultEnvFile
}
