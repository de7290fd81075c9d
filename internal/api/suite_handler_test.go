package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/middleware"
	"qaflow-backend-go/internal/models"
)

type stubProfileRepo struct {
	profiles map[string]*models.UserProfile
}

func (r *stubProfileRepo) GetByUID(_ context.Context, uid string) (*models.UserProfile, error) {
	profile, ok := r.profiles[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *profile
	return &clone, nil
}

func (r *stubProfileRepo) Create(_ context.Context, profile *models.UserProfile) error {
	clone := *profile
	r.profiles[profile.UID] = &clone
	return nil
}

func (r *stubProfileRepo) Update(_ context.Context, profile *models.UserProfile) error {
	clone := *profile
	r.profiles[profile.UID] = &clone
	return nil
}

func (r *stubProfileRepo) UpdateFields(context.Context, string, map[string]interface{}) error {
	return nil
}

type stubSuiteRepo struct{}

func (stubSuiteRepo) Create(_ context.Context, suite *models.Suite) (string, error) {
	return "suite-1", nil
}

func (stubSuiteRepo) GetByID(context.Context, string) (*models.Suite, error) {
	return nil, db.ErrNotFound
}

func (stubSuiteRepo) ListVisible(context.Context, string, string) (*db.SuiteListResult, error) {
	return &db.SuiteListResult{}, nil
}

func (stubSuiteRepo) CountByOwnerID(context.Context, string) (int, error) { return 0, nil }
func (stubSuiteRepo) Update(context.Context, *models.Suite) error        { return nil }
func (stubSuiteRepo) Delete(context.Context, string) error               { return nil }
func (stubSuiteRepo) FlagInactive(context.Context, []string) error       { return nil }

type stubSuiteService struct {
	suite *models.Suite
	err   error
}

func (s *stubSuiteService) CreateSuite(context.Context, string, *models.UserProfile, models.CreateSuiteRequest) (*models.Suite, error) {
	return s.suite, s.err
}

func (s *stubSuiteService) GetSuiteByID(context.Context, string, string) (*models.Suite, error) {
	return s.suite, s.err
}

func (s *stubSuiteService) UpdateSuite(context.Context, string, string, models.UpdateSuiteRequest) (*models.Suite, error) {
	return s.suite, s.err
}

func (s *stubSuiteService) DeleteSuite(context.Context, string, string) error { return s.err }

func (s *stubSuiteService) ModifyMembers(context.Context, string, string, models.SuiteMembersRequest, bool) (*models.Suite, error) {
	return s.suite, s.err
}

func (s *stubSuiteService) HandleTrialExpiry(context.Context, string) error { return s.err }

func suiteTestSession() *identity.Session {
	return &identity.Session{
		UID:           "u1",
		Email:         "u1@example.com",
		DisplayName:   "Test User",
		EmailVerified: true,
	}
}

func newSuiteHandlerHarness(t *testing.T, svc core.SuiteService) (*SuiteHandler, *core.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	profiles := &stubProfileRepo{profiles: map[string]*models.UserProfile{
		"u1": {
			UID:          "u1",
			Email:        "u1@example.com",
			AccountType:  models.AccountTypeIndividual,
			Subscription: models.NewTrialSubscription(now),
		},
	}}
	sessions := core.NewSessionManager(profiles, stubSuiteRepo{}, kvstore.NewMemoryStore(), nil, func() time.Time { return now })
	return NewSuiteHandler(svc, sessions, nil), sessions
}

func postSuiteContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suites", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.SessionKey, suiteTestSession())
	return c, w
}

func TestCreateSuite_RecordsInteraction(t *testing.T) {
	svc := &stubSuiteService{suite: &models.Suite{ID: "suite-1", Name: "Alpha", OwnerID: "u1"}}
	handler, sessions := newSuiteHandlerHarness(t, svc)

	c, w := postSuiteContext(t, `{"name":"Alpha"}`)
	handler.CreateSuite(c)
	require.Equal(t, http.StatusCreated, w.Code)

	ctrl, err := sessions.Controller(context.Background(), suiteTestSession())
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.Tracker().Count(context.Background(), "u1"))
}

func TestCreateSuite_FailureRecordsNothing(t *testing.T) {
	svc := &stubSuiteService{err: core.ErrSuiteLimitReached}
	handler, sessions := newSuiteHandlerHarness(t, svc)

	c, w := postSuiteContext(t, `{"name":"Alpha"}`)
	handler.CreateSuite(c)
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	ctrl, err := sessions.Controller(context.Background(), suiteTestSession())
	require.NoError(t, err)
	assert.Equal(t, 0, ctrl.Tracker().Count(context.Background(), "u1"))
}
