package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/notify"
)

// ExpiryHandler processes a trial expiry transition for one user: persist
// the downgraded subscription, deactivate suites above the free limit, and
// record the event. Implemented by the suite service.
type ExpiryHandler interface {
	HandleTrialExpiry(ctx context.Context, uid string) error
}

// NavBuffer records forced navigation requests for pickup by the transport
// layer. Only the latest path is kept.
type NavBuffer struct {
	mu   sync.Mutex
	path string
}

func NewNavBuffer() *NavBuffer {
	return &NavBuffer{}
}

// Navigate records the forced navigation target.
func (b *NavBuffer) Navigate(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.path = path
}

// Drain returns and clears the recorded path, or "" when none is pending.
func (b *NavBuffer) Drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := b.path
	b.path = ""
	return path
}

// EffectRunner executes resolution effects with at-most-once semantics per
// (state, route, kind) combination. Re-resolving the same state on the same
// route does not re-fire its effects; a state or route change re-arms them.
// Dedup history is cleared when the session changes.
type EffectRunner struct {
	store    *ProfileStore
	expiry   ExpiryHandler
	nav      *NavBuffer
	notifier *notify.DedupSink
	logger   *zap.Logger

	mu    sync.Mutex
	fired map[string]struct{}
	epoch uint64
}

func NewEffectRunner(store *ProfileStore, expiry ExpiryHandler, nav *NavBuffer, notifier *notify.DedupSink, logger *zap.Logger) *EffectRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if nav == nil {
		nav = NewNavBuffer()
	}
	if notifier == nil {
		notifier = notify.NewDedupSink(logger)
	}
	return &EffectRunner{
		store:    store,
		expiry:   expiry,
		nav:      nav,
		notifier: notifier,
		logger:   logger,
		fired:    make(map[string]struct{}),
	}
}

// Run executes the effects of one resolution for the given session epoch and
// route. Effects already fired for this (state, route, kind) are skipped.
// Concurrent calls race for the dedup slot; exactly one fires each effect.
func (r *EffectRunner) Run(ctx context.Context, uid string, epoch uint64, route string, res Resolution) {
	r.mu.Lock()
	if epoch != r.epoch {
		r.fired = make(map[string]struct{})
		r.epoch = epoch
	}
	var claimed []Effect
	for _, ef := range res.Effects {
		key := fmt.Sprintf("%s|%s|%d", res.State, route, ef.Kind)
		if _, done := r.fired[key]; done {
			continue
		}
		r.fired[key] = struct{}{}
		claimed = append(claimed, ef)
	}
	r.mu.Unlock()

	for _, ef := range claimed {
		r.execute(ctx, uid, ef)
	}
}

// DrainOutputs returns and clears the client-facing outputs accumulated by
// previously run effects: queued notifications and the latest forced
// navigation path.
func (r *EffectRunner) DrainOutputs() ([]notify.Notification, string) {
	return r.notifier.Drain(), r.nav.Drain()
}

// Reset clears the notification dedup history and any pending outputs.
// Called when the identity session changes.
func (r *EffectRunner) Reset() {
	r.notifier.Reset()
	r.nav.Drain()
}

func (r *EffectRunner) execute(ctx context.Context, uid string, ef Effect) {
	switch ef.Kind {
	case EffectNavigate:
		r.nav.Navigate(ef.Path)
	case EffectClearSuiteCache:
		r.store.ClearSuiteCache()
	case EffectDismissForcedSuiteModal:
		// State-only: resolution already reports the modal closed.
	case EffectHandleTrialExpiry:
		if err := r.expiry.HandleTrialExpiry(ctx, uid); err != nil {
			// Capability derivation already restricts the account; the
			// persisted record catches up on a later resolution.
			r.logger.Warn("trial expiry processing failed", zap.String("uid", uid), zap.Error(err))
			r.notifier.Show(notify.Notification{
				ID:      "trial-expiry-failed",
				Type:    notify.TypeWarning,
				Message: "We could not update your subscription. Some features may be unavailable.",
			})
			return
		}
		if _, err := r.store.RefreshProfile(ctx, true); err != nil {
			r.logger.Warn("profile refresh after expiry failed", zap.String("uid", uid), zap.Error(err))
		}
	case EffectNotify:
		r.notifier.Show(ef.Notification)
	}
}
