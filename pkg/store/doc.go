// Package store defines the secret store contract for enveloper.
//
// Enveloper manages named secrets across interchangeable backends: the OS
// keychain, flat .env files, and several cloud secret managers. Every backend
// implements the Store interface, and every secret is addressed by a
// composite key built from five ordered segments:
//
//	prefix, domain, project, version, name
//
// joined by a backend-specific separator. The KeyFormat type is the codec for
// that addressing scheme; it is what lets a key written to SSM as
//
//	/envr/prod/myapp/1.0.0/DB_URL
//
// be re-addressed on Azure Key Vault as
//
//	envr--prod--myapp--1-0-0--DB_URL
//
// without losing any logical segment.
//
// # Architecture
//
//	┌──────────────────────────────────────────────┐
//	│               CLI / SDK caller               │
//	└──────────────────────┬───────────────────────┘
//	                       │ flags, env, .enveloper.yaml
//	┌──────────────────────▼───────────────────────┐
//	│        Configuration Resolver (scope)        │
//	│             internal/config                  │
//	└──────────────────────┬───────────────────────┘
//	                       │ resolved scope
//	┌──────────────────────▼───────────────────────┐
//	│      Registry + Factory (store instance)     │
//	│             internal/stores                  │
//	└──────────────────────┬───────────────────────┘
//	                       │ Store interface (this package)
//	┌──────────────────────▼───────────────────────┐
//	│  keychain │ file │ aws │ gcp │ azure │ ...   │
//	└──────────────────────────────────────────────┘
//
// # Capabilities
//
// Backends differ in what they can do: GitHub Actions secrets can be written
// and listed but never read back, while the keychain and file stores support
// the full set. The Descriptor type declares each backend's capability set
// statically, so the available operations are inspectable without
// constructing a store, and a store asked for an unsupported operation
// returns *CapabilityError rather than a confusing backend failure.
//
// # Error taxonomy
//
//   - Malformed key: KeyFormat.ParseKey returns nil, never an error.
//   - Missing secret: ErrNotFound sentinel; idempotent deletes skip it.
//   - Unsupported operation: *CapabilityError, distinct from not-found.
//   - Backend failure: *BackendError wrapping the SDK error, propagated
//     without retry.
//
// Implementations must never log secret values; use logging.Secret when a
// key or value needs to appear in debug output.
package store
