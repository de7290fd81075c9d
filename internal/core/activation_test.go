package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/models"
)

func suiteFixture(id string, created time.Time) *models.Suite {
	return &models.Suite{ID: id, Name: "Suite " + id, OwnerID: "u1", CreatedAt: created}
}

func TestSelectActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	newest := suiteFixture("s2", now)
	older := suiteFixture("s1", now.Add(-time.Hour))
	suites := []*models.Suite{newest, older} // descending creation time

	policy := NewActivationPolicy(kvstore.NewMemoryStore(), nil)

	tests := []struct {
		name        string
		suites      []*models.Suite
		persistedID string
		want        *models.Suite
	}{
		{"persisted id matches", suites, "s1", older},
		{"persisted id no longer visible", suites, "gone", newest},
		{"no persisted id defaults to first", suites, "", newest},
		{"no suites at all", nil, "s1", nil},
		{"no suites and no persisted id", nil, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.SelectActive(tt.suites, tt.persistedID))
		})
	}
}

func TestActivate_PersistsAndClears(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	policy := NewActivationPolicy(kv, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, policy.Activate(ctx, "u1", suiteFixture("s1", now)))
	assert.Equal(t, "s1", policy.PersistedID(ctx, "u1"))

	// Activating the already-active suite still overwrites the stored id.
	require.NoError(t, policy.Activate(ctx, "u1", suiteFixture("s1", now)))
	assert.Equal(t, "s1", policy.PersistedID(ctx, "u1"))

	require.NoError(t, policy.Activate(ctx, "u1", suiteFixture("s2", now)))
	assert.Equal(t, "s2", policy.PersistedID(ctx, "u1"))

	require.NoError(t, policy.Activate(ctx, "u1", nil))
	assert.Empty(t, policy.PersistedID(ctx, "u1"))
}

func TestPersistedID_AbsentKey(t *testing.T) {
	policy := NewActivationPolicy(kvstore.NewMemoryStore(), nil)
	assert.Empty(t, policy.PersistedID(context.Background(), "u1"))
}

func TestActivationRoundTrip_SurvivesSuiteReload(t *testing.T) {
	// The stored selection is only a hint: after a reload it reattaches to
	// the matching suite, and falls back gracefully when that suite is gone.
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	policy := NewActivationPolicy(kv, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := suiteFixture("s1", now.Add(-time.Hour))
	second := suiteFixture("s2", now)
	require.NoError(t, policy.Activate(ctx, "u1", first))

	reloaded := []*models.Suite{second, first}
	assert.Equal(t, first, policy.SelectActive(reloaded, policy.PersistedID(ctx, "u1")))

	withoutFirst := []*models.Suite{second}
	assert.Equal(t, second, policy.SelectActive(withoutFirst, policy.PersistedID(ctx, "u1")))
}
