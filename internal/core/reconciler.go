package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/models"
)

// TrialReconciler brings the persisted subscription record in line with the
// freshly derived trial state. It issues at most one write per guard epoch:
// the guard is armed by the first write and stays armed until ResetGuard is
// called (explicit profile refresh, explicit profile update, or a new
// identity session).
type TrialReconciler struct {
	profileRepo db.ProfileRepository
	logger      *zap.Logger

	mu    sync.Mutex
	wrote bool
}

// NewTrialReconciler creates a TrialReconciler over the given repository.
func NewTrialReconciler(profileRepo db.ProfileRepository, logger *zap.Logger) *TrialReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrialReconciler{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// ResetGuard re-arms the reconciler for one more persisted write.
func (r *TrialReconciler) ResetGuard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wrote = false
}

// Reconcile compares the persisted subscription record against the derived
// capabilities and, when drift is detected, persists exactly the changed
// fields. It returns the effective profile carrying the reconciled
// subscription regardless of whether the write happened or succeeded: the
// caller must see correct trial state even when persistence fails.
func (r *TrialReconciler) Reconcile(ctx context.Context, profile *models.UserProfile, caps Capabilities, now time.Time) *models.UserProfile {
	if profile == nil {
		return nil
	}

	persisted := profile.Subscription
	derived := persisted // copy; value type

	derived.IsTrialActive = caps.IsTrialActive
	derived.TrialDaysRemaining = caps.TrialDaysRemaining

	// Trial expiry transition: once a trial lapses, the account has used its
	// single trial. HasUsedTrial never goes back to false.
	if persisted.IsTrialActive && !caps.IsTrialActive {
		derived.HasUsedTrial = true
	}
	derived.HasUsedTrial = derived.HasUsedTrial || persisted.HasUsedTrial

	// Backfill a missing trial start for records created before the start
	// date was tracked.
	if derived.IsTrialActive && derived.TrialStartDate == nil {
		start := now.UTC()
		derived.TrialStartDate = &start
	}

	derived.SubscriptionStatus = deriveStatus(derived, caps)

	fields := diffSubscription(persisted, derived)
	if len(fields) > 0 && r.armGuard() {
		fields["updatedAt"] = now.UTC()
		if err := r.profileRepo.UpdateFields(ctx, profile.UID, fields); err != nil {
			// Non-fatal: the derived state is still served for this session;
			// no retry within the same tick.
			r.logger.Warn("Trial reconciliation write failed; continuing with derived state",
				zap.String("uid", profile.UID),
				zap.Error(err),
			)
		}
	}

	effective := *profile
	effective.Subscription = derived
	return &effective
}

// armGuard marks the guard epoch as written and reports whether this call
// won the single write slot.
func (r *TrialReconciler) armGuard() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wrote {
		return false
	}
	r.wrote = true
	return true
}

// deriveStatus resolves the subscription status implied by the derived
// record: active while a trial runs or a paid plan is in good standing.
func deriveStatus(sub models.SubscriptionRecord, caps Capabilities) string {
	if caps.IsTrialActive {
		return models.SubscriptionActive
	}
	if sub.SubscriptionType != "" && sub.SubscriptionType != models.PlanFree {
		return sub.SubscriptionStatus
	}
	if sub.HasUsedTrial {
		return models.SubscriptionInactive
	}
	return sub.SubscriptionStatus
}

// diffSubscription returns the Firestore field paths that changed between
// the persisted and derived records. An empty map means no write is needed.
func diffSubscription(persisted, derived models.SubscriptionRecord) map[string]interface{} {
	fields := make(map[string]interface{})

	if persisted.IsTrialActive != derived.IsTrialActive {
		fields["subscription.isTrialActive"] = derived.IsTrialActive
	}
	if persisted.SubscriptionStatus != derived.SubscriptionStatus {
		fields["subscription.subscriptionStatus"] = derived.SubscriptionStatus
	}
	if persisted.TrialDaysRemaining != derived.TrialDaysRemaining {
		fields["subscription.trialDaysRemaining"] = derived.TrialDaysRemaining
	}
	if persisted.HasUsedTrial != derived.HasUsedTrial {
		fields["subscription.hasUsedTrial"] = derived.HasUsedTrial
	}
	if persisted.TrialStartDate == nil && derived.TrialStartDate != nil {
		fields["subscription.trialStartDate"] = *derived.TrialStartDate
	}

	return fields
}
