package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/models"
)

// ActivationPolicy decides which suite is active for a user and persists the
// selection in client storage. The persisted id is a hint, never
// authoritative: it is revalidated against the visible suite set on every
// selection.
type ActivationPolicy struct {
	kv     kvstore.Store
	logger *zap.Logger
}

// NewActivationPolicy creates an ActivationPolicy over the given store.
func NewActivationPolicy(kv kvstore.Store, logger *zap.Logger) *ActivationPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivationPolicy{kv: kv, logger: logger}
}

// PersistedID returns the last persisted active-suite id for uid, or ""
// when none is stored or the store is unreachable.
func (p *ActivationPolicy) PersistedID(ctx context.Context, uid string) string {
	id, err := p.kv.Get(ctx, activeSuiteKey(uid))
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			p.logger.Warn("Failed to read persisted active suite", zap.String("uid", uid), zap.Error(err))
		}
		return ""
	}
	return id
}

// SelectActive resolves the active suite: the suite matching persistedID
// when present, else the first suite of the list (callers supply suites
// ordered by descending creation time), else nil.
func (p *ActivationPolicy) SelectActive(suites []*models.Suite, persistedID string) *models.Suite {
	if persistedID != "" {
		for _, suite := range suites {
			if suite.ID == persistedID {
				return suite
			}
		}
	}
	if len(suites) > 0 {
		return suites[0]
	}
	return nil
}

// Activate persists suite as the active selection for uid. Passing nil
// clears the selection. Activating the already-active suite still overwrites
// the stored id.
func (p *ActivationPolicy) Activate(ctx context.Context, uid string, suite *models.Suite) error {
	if suite == nil {
		if err := p.kv.Remove(ctx, activeSuiteKey(uid)); err != nil {
			return fmt.Errorf("failed to clear active suite for '%s': %w", uid, err)
		}
		return nil
	}
	if err := p.kv.Set(ctx, activeSuiteKey(uid), suite.ID); err != nil {
		return fmt.Errorf("failed to persist active suite '%s' for '%s': %w", suite.ID, uid, err)
	}
	return nil
}
