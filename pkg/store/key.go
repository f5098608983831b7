package store

import (
	"regexp"
	"strings"
)

// Defaults for composite key segments. Individual backends may override the
// namespace (e.g. Azure Key Vault cannot store underscores in secret names).
const (
	// DefaultPrefix tags every key written by enveloper so externally-created
	// keys can be told apart from composite ones.
	DefaultPrefix = "envr"

	// DefaultNamespace is the reserved value used when project or domain are
	// not provided. It is deliberately not a name a user would pick, so
	// "default" stays available as a real project or domain name.
	DefaultNamespace = "_default_"

	// DefaultVersion is the version segment used when none is configured.
	DefaultVersion = "1.0.0"
)

var versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidVersion reports whether v has the three-part dotted numeric shape the
// version segment requires (e.g. "1.0.0", "2.13.4").
func ValidVersion(v string) bool {
	return versionRe.MatchString(v)
}

// KeyFormat describes how one backend encodes composite keys. Each store
// carries its own KeyFormat because backends disagree about which characters
// may appear in a key: SSM wants slash paths, Azure Key Vault only allows
// alphanumerics and hyphens, GitHub secret names are env-var shaped.
//
// A composite key is the five segments
//
//	prefix, domain, project, version, name
//
// joined by KeySeparator. Any dot inside the version segment is replaced by
// VersionSeparator so that versions survive backends whose separator rules
// would otherwise reject them.
type KeyFormat struct {
	// Prefix is the first segment of every composite key.
	Prefix string

	// KeySeparator joins the five segments. Examples: "/" (SSM, keychain),
	// "--" (Azure, GCP), "__" (GitHub).
	KeySeparator string

	// VersionSeparator replaces "." inside the version segment. "." means no
	// substitution.
	VersionSeparator string

	// Namespace is the sentinel used for an empty domain or project.
	Namespace string

	// LeadingSeparator indicates the backend addresses keys with a leading
	// separator (SSM parameter paths, Akeyless item paths). BuildKey prepends
	// it and ParseKey strips it.
	LeadingSeparator bool
}

// ParsedKey holds the logical segments recovered from a composite key. The
// version is reported in canonical dotted form regardless of the store's
// VersionSeparator.
type ParsedKey struct {
	Domain  string
	Project string
	Version string
	Name    string
}

// SanitizeSegment replaces every occurrence of the key separator in value
// with an underscore, so the segment cannot break the key apart. A value that
// is empty (or only whitespace) after substitution becomes the namespace
// sentinel. Total over all strings and idempotent. The substitution is lossy:
// parsing cannot recover an original value that contained the separator.
func (f KeyFormat) SanitizeSegment(value string) string {
	out := strings.ReplaceAll(value, f.KeySeparator, "_")
	if strings.TrimSpace(out) == "" {
		return f.Namespace
	}
	return out
}

// BuildKey encodes the five segments into the backend's composite key form.
// Name, domain and project are sanitized unconditionally; an empty domain or
// project becomes the namespace sentinel, and an empty version becomes
// DefaultVersion. Pure and idempotent: identical inputs always yield the
// identical string.
func (f KeyFormat) BuildKey(name, project, domain, version string) string {
	if version == "" {
		version = DefaultVersion
	}
	segments := []string{
		f.Prefix,
		f.SanitizeSegment(domain),
		f.SanitizeSegment(project),
		strings.ReplaceAll(version, ".", f.VersionSeparator),
		f.SanitizeSegment(name),
	}
	key := strings.Join(segments, f.KeySeparator)
	if f.LeadingSeparator {
		key = f.KeySeparator + key
	}
	return key
}

// ParseKey splits key into its five segments and returns them, or nil when
// the key is not a composite key of this format: wrong segment count or a
// first segment that is not the expected prefix. A nil result is how callers
// distinguish externally-created keys from enveloper's own; it is never an
// error and ParseKey never panics on any input.
//
// The version substitution is reversed by segment position, not by pattern,
// so a name that happens to contain the version separator is left alone.
func (f KeyFormat) ParseKey(key string) *ParsedKey {
	if f.KeySeparator == "" {
		return nil
	}
	if f.LeadingSeparator {
		for strings.HasPrefix(key, f.KeySeparator) {
			key = strings.TrimPrefix(key, f.KeySeparator)
		}
	}
	segments := strings.Split(key, f.KeySeparator)
	if len(segments) != 5 {
		return nil
	}
	if segments[0] != f.Prefix {
		return nil
	}
	version := segments[3]
	if f.VersionSeparator != "." {
		version = strings.ReplaceAll(version, f.VersionSeparator, ".")
	}
	return &ParsedKey{
		Domain:  segments[1],
		Project: segments[2],
		Version: version,
		Name:    segments[4],
	}
}

// ExportName projects a key down to a plain environment-variable name: the
// name segment for composite keys, the whole key unchanged for anything
// ParseKey does not recognize. Used when loading a store's contents into a
// process environment or a .env file.
func (f KeyFormat) ExportName(key string) string {
	parsed := f.ParseKey(key)
	if parsed == nil {
		return key
	}
	return parsed.Name
}

// DefaultPrefix builds the backend's natural key prefix for a scope when the
// caller supplies none: prefix, sanitized domain and sanitized project joined
// by the key separator, with a trailing separator so names append directly.
// Stores with stricter naming rules (GitHub) wrap this with their own rules.
func (f KeyFormat) DefaultPrefix(domain, project string) string {
	p := strings.Join([]string{
		f.Prefix,
		f.SanitizeSegment(domain),
		f.SanitizeSegment(project),
	}, f.KeySeparator) + f.KeySeparator
	if f.LeadingSeparator {
		p = f.KeySeparator + p
	}
	return p
}
