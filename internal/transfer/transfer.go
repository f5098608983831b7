// Package transfer copies secrets between stores, translating each key from
// the source's encoding to the target's.
package transfer

import (
	"context"
	"fmt"

	"github.com/systmms/enveloper/internal/logging"
	"github.com/systmms/enveloper/pkg/store"
)

// Result reports what a copy run did. On an aborted run Transferred still
// lists everything that made it across, so the user knows the partial state
// of the target.
type Result struct {
	Transferred []string
	Skipped     []string
}

// Copy moves every key in the source's scope into the target. Each key is
// decoded with the source's format and re-encoded with the target's, so the
// domain, project and version segments survive the change of separator
// rules; keys the source format does not recognize are re-scoped under the
// target's own scope.
//
// A key that disappears between list and read is skipped. A backend failure
// aborts the run immediately: stores are not transactional, so the partial
// result is returned alongside the error rather than rolled back.
func Copy(ctx context.Context, source, target store.Store, logger *logging.Logger) (Result, error) {
	var result Result

	if !source.Descriptor().Capabilities.Has(store.CapRead) {
		return result, &store.CapabilityError{Store: source.Descriptor().Name, Capability: store.CapRead}
	}
	if !source.Descriptor().Capabilities.Has(store.CapList) {
		return result, &store.CapabilityError{Store: source.Descriptor().Name, Capability: store.CapList}
	}
	if !target.Descriptor().Capabilities.Has(store.CapWrite) {
		return result, &store.CapabilityError{Store: target.Descriptor().Name, Capability: store.CapWrite}
	}

	keys, err := source.ListKeys(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list %s store: %w", source.Descriptor().Name, err)
	}

	for _, key := range keys {
		value, err := source.Get(ctx, key)
		if err != nil {
			if store.IsNotFound(err) {
				logger.Warn("skipping %s: no longer present in %s store", key, source.Descriptor().Name)
				result.Skipped = append(result.Skipped, key)
				continue
			}
			return result, fmt.Errorf("failed to read %s from %s store: %w", key, source.Descriptor().Name, err)
		}

		targetKey := translateKey(source.Format(), target, key)
		logger.Debug("copying %s -> %s (value %s)", key, targetKey, logging.Secret(value))

		if err := target.Set(ctx, targetKey, value); err != nil {
			return result, fmt.Errorf("failed to write %s to %s store: %w", targetKey, target.Descriptor().Name, err)
		}
		result.Transferred = append(result.Transferred, key)
	}

	return result, nil
}

// translateKey rebuilds a source key in the target's encoding. Composite
// keys keep their own segments; anything else is treated as a bare name and
// picks up the target's scope.
func translateKey(sourceFormat store.KeyFormat, target store.Store, key string) string {
	parsed := sourceFormat.ParseKey(key)
	if parsed == nil {
		return target.ResolveKey(key)
	}
	return target.Format().BuildKey(parsed.Name, parsed.Project, parsed.Domain, parsed.Version)
}
