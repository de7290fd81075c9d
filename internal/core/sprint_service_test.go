package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qaflow-backend-go/internal/models"
)

func newTestSprintService(t *testing.T) (SprintService, *fakeAuditService) {
	t.Helper()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	suites := newFakeSuiteRepo()
	suites.add(&models.Suite{ID: "s1", Name: "Alpha", OwnerID: "u1", CreatedAt: clock.Now()})
	audit := &fakeAuditService{}
	svc := NewSprintService(newFakeSprintRepo(), suites, audit, nil, clock.Now)
	return svc, audit
}

func TestCreateSprint(t *testing.T) {
	svc, audit := newTestSprintService(t)

	sprint, err := svc.CreateSprint(context.Background(), "u1", "s1", models.CreateSprintRequest{
		Name:  "Sprint 14",
		Goal:  "Stabilize checkout",
		Start: "2025-06-02T00:00:00Z",
		End:   "2025-06-16T00:00:00Z",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, sprint.ID)
	assert.Equal(t, models.SprintPlanned, sprint.Status)
	assert.Equal(t, "u1", sprint.CreatedBy)
	require.NotNil(t, sprint.StartDate)
	require.NotNil(t, sprint.EndDate)
	assert.True(t, sprint.EndDate.After(*sprint.StartDate))
	assert.Contains(t, audit.actions(), "SPRINT_CREATE")
}

func TestCreateSprint_DatesOptional(t *testing.T) {
	svc, _ := newTestSprintService(t)

	sprint, err := svc.CreateSprint(context.Background(), "u1", "s1", models.CreateSprintRequest{
		Name: "Backlog grooming",
	})
	require.NoError(t, err)
	assert.Nil(t, sprint.StartDate)
	assert.Nil(t, sprint.EndDate)
}

func TestCreateSprint_InvalidDates(t *testing.T) {
	svc, _ := newTestSprintService(t)

	_, err := svc.CreateSprint(context.Background(), "u1", "s1", models.CreateSprintRequest{
		Name:  "Bad date",
		Start: "next tuesday",
	})
	assert.ErrorIs(t, err, ErrInvalidSprintDate)

	_, err = svc.CreateSprint(context.Background(), "u1", "s1", models.CreateSprintRequest{
		Name:  "Backwards",
		Start: "2025-06-16T00:00:00Z",
		End:   "2025-06-02T00:00:00Z",
	})
	assert.ErrorIs(t, err, ErrInvalidSprintDate)
}

func TestUpdateSprint_StatusTransitions(t *testing.T) {
	svc, _ := newTestSprintService(t)
	created, err := svc.CreateSprint(context.Background(), "u1", "s1", models.CreateSprintRequest{Name: "Sprint 1"})
	require.NoError(t, err)

	active := models.SprintActive
	updated, err := svc.UpdateSprint(context.Background(), "u1", "s1", created.ID, models.UpdateSprintRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, updated.Status)

	bogus := "abandoned"
	_, err = svc.UpdateSprint(context.Background(), "u1", "s1", created.ID, models.UpdateSprintRequest{Status: &bogus})
	assert.Error(t, err)

	// The rejected update must not have been persisted.
	reloaded, err := svc.GetSprintByID(context.Background(), "u1", "s1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, reloaded.Status)
}

func TestSprintAccessControl(t *testing.T) {
	svc, _ := newTestSprintService(t)

	_, err := svc.CreateSprint(context.Background(), "stranger", "s1", models.CreateSprintRequest{Name: "Nope"})
	assert.ErrorIs(t, err, ErrForbiddenAccess)

	_, err = svc.ListSprints(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrSuiteNotFound)

	_, err = svc.GetSprintByID(context.Background(), "u1", "s1", "missing")
	assert.ErrorIs(t, err, ErrSprintNotFound)
}
