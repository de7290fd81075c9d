package core

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/kvstore"
)

// TipsInteractionThreshold is the interaction count at which the one-time
// onboarding tips overlay stops being shown.
const TipsInteractionThreshold = 2

// InteractionTracker counts qualifying user actions (navigation to feature
// routes, successful suite creation) persisted across sessions. The count
// only gates the onboarding tips overlay; the threshold comparison lives in
// the readiness state machine.
type InteractionTracker struct {
	kv     kvstore.Store
	logger *zap.Logger
}

// NewInteractionTracker creates an InteractionTracker over the given store.
func NewInteractionTracker(kv kvstore.Store, logger *zap.Logger) *InteractionTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionTracker{kv: kv, logger: logger}
}

// Count returns the persisted interaction count for uid, defaulting to 0
// when absent or unparsable.
func (t *InteractionTracker) Count(ctx context.Context, uid string) int {
	raw, err := t.kv.Get(ctx, interactionKey(uid))
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			t.logger.Warn("Failed to read interaction count", zap.String("uid", uid), zap.Error(err))
		}
		return 0
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// RecordInteraction increments and persists the counter for uid, returning
// the new count.
func (t *InteractionTracker) RecordInteraction(ctx context.Context, uid string) (int, error) {
	count := t.Count(ctx, uid) + 1
	if err := t.kv.Set(ctx, interactionKey(uid), strconv.Itoa(count)); err != nil {
		return count - 1, err
	}
	return count, nil
}

// interactionKey is the client-storage key holding a user's interaction count.
func interactionKey(uid string) string {
	return "interactions:" + uid
}
