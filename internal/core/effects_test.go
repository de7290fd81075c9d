package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/notify"
)

type fakeExpiryHandler struct {
	calls int
	err   error
}

func (h *fakeExpiryHandler) HandleTrialExpiry(context.Context, string) error {
	h.calls++
	return h.err
}

func newTestRunner(t *testing.T) (*EffectRunner, *fakeExpiryHandler, *NavBuffer, *notify.DedupSink) {
	t.Helper()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := NewProfileStore(newFakeProfileRepo(), newFakeSuiteRepo(), kvstore.NewMemoryStore(), nil, clock.Now)
	expiry := &fakeExpiryHandler{}
	nav := NewNavBuffer()
	sink := notify.NewDedupSink(nil)
	return NewEffectRunner(store, expiry, nav, sink, nil), expiry, nav, sink
}

func TestEffectRunner_DedupPerStateAndRoute(t *testing.T) {
	runner, expiry, _, _ := newTestRunner(t)
	res := Resolution{
		State:   StateTrialExpiredBlocking,
		Effects: []Effect{{Kind: EffectHandleTrialExpiry}},
	}

	// Re-resolving the same state on the same route fires the effect once.
	runner.Run(context.Background(), "u1", 1, "/dashboard", res)
	runner.Run(context.Background(), "u1", 1, "/dashboard", res)
	assert.Equal(t, 1, expiry.calls)

	// A different route re-arms the same effect.
	runner.Run(context.Background(), "u1", 1, "/reports", res)
	assert.Equal(t, 2, expiry.calls)

	// A new session epoch clears all dedup history.
	runner.Run(context.Background(), "u1", 2, "/dashboard", res)
	assert.Equal(t, 3, expiry.calls)
}

func TestEffectRunner_Navigate(t *testing.T) {
	runner, _, nav, _ := newTestRunner(t)
	res := Resolution{
		State:   StateNeedsEmailVerification,
		Effects: []Effect{{Kind: EffectNavigate, Path: EmailVerificationPath}},
	}

	runner.Run(context.Background(), "u1", 1, "/dashboard", res)
	runner.Run(context.Background(), "u1", 1, "/dashboard", res)

	assert.Equal(t, EmailVerificationPath, nav.Drain())
	assert.Empty(t, nav.Drain(), "drained path does not linger")
}

func TestEffectRunner_ConcurrentRunsFireOnce(t *testing.T) {
	runner, expiry, _, _ := newTestRunner(t)
	res := Resolution{
		State:   StateTrialExpiredBlocking,
		Effects: []Effect{{Kind: EffectHandleTrialExpiry}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Run(context.Background(), "u1", 1, "/dashboard", res)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, expiry.calls)
}

func TestEffectRunner_DrainOutputs(t *testing.T) {
	runner, _, _, _ := newTestRunner(t)
	res := Resolution{
		State: StateNeedsEmailVerification,
		Effects: []Effect{
			{Kind: EffectNavigate, Path: EmailVerificationPath},
			{Kind: EffectNotify, Notification: notify.Notification{Type: notify.TypeInfo, Message: "Verify your email"}},
		},
	}

	runner.Run(context.Background(), "u1", 1, "/dashboard", res)

	notifications, forcedNav := runner.DrainOutputs()
	require.Len(t, notifications, 1)
	assert.Equal(t, EmailVerificationPath, forcedNav)

	notifications, forcedNav = runner.DrainOutputs()
	assert.Empty(t, notifications)
	assert.Empty(t, forcedNav)
}

func TestEffectRunner_ExpiryFailureNotifiesAndContinues(t *testing.T) {
	runner, expiry, _, sink := newTestRunner(t)
	expiry.err = errors.New("firestore unavailable")
	res := Resolution{
		State:   StateTrialExpiredBlocking,
		Effects: []Effect{{Kind: EffectHandleTrialExpiry}},
	}

	runner.Run(context.Background(), "u1", 1, "/dashboard", res)

	require.Equal(t, 1, expiry.calls)
	pending := sink.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, notify.TypeWarning, pending[0].Type)
	assert.NotEmpty(t, pending[0].ID, "dedup needs a stable id")

	// The warning's dedup slot must not swallow unrelated notifications.
	sink.Show(notify.Notification{Type: notify.TypeInfo, Message: "Suites partially loaded"})
	require.Len(t, sink.Drain(), 1)
}

func TestEffectRunner_NotifyEffect(t *testing.T) {
	runner, _, _, sink := newTestRunner(t)
	res := Resolution{
		State: StateReady,
		Effects: []Effect{{
			Kind:         EffectNotify,
			Notification: notify.Notification{Type: notify.TypeInfo, Message: "Suites partially loaded"},
		}},
	}

	runner.Run(context.Background(), "u1", 1, "/dashboard", res)

	pending := sink.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, "Suites partially loaded", pending[0].Message)
}
