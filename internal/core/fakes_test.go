package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/models"
)

// fakeClock is a controllable time source for tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeProfileRepo is an in-memory db.ProfileRepository with call counters
// and error injection.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile

	getErr    error
	createErr error
	updateErr error
	fieldsErr error
	getHook   func() // runs outside the lock, before each GetByUID

	getCalls         int
	createCalls      int
	updateFieldCalls int
	lastFields       map[string]interface{}
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*models.UserProfile)}
}

func (r *fakeProfileRepo) GetByUID(_ context.Context, uid string) (*models.UserProfile, error) {
	if r.getHook != nil {
		r.getHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	profile, ok := r.profiles[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	clone := *profile
	r.profiles[profile.UID] = &clone
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	clone := *profile
	r.profiles[profile.UID] = &clone
	return nil
}

func (r *fakeProfileRepo) UpdateFields(_ context.Context, uid string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateFieldCalls++
	r.lastFields = fields
	if r.fieldsErr != nil {
		return r.fieldsErr
	}
	// Field-path application is intentionally partial: tests assert on the
	// recorded paths, not on document state.
	if profile, ok := r.profiles[uid]; ok {
		if v, ok := fields["subscription.isTrialActive"].(bool); ok {
			profile.Subscription.IsTrialActive = v
		}
		if v, ok := fields["subscription.hasUsedTrial"].(bool); ok {
			profile.Subscription.HasUsedTrial = v
		}
		if v, ok := fields["subscription.trialDaysRemaining"].(int); ok {
			profile.Subscription.TrialDaysRemaining = v
		}
		if v, ok := fields["subscription.subscriptionStatus"].(string); ok {
			profile.Subscription.SubscriptionStatus = v
		}
		if v, ok := fields["subscription.subscriptionType"].(string); ok {
			profile.Subscription.SubscriptionType = v
		}
	}
	return nil
}

// fakeSuiteRepo is an in-memory db.SuiteRepository.
type fakeSuiteRepo struct {
	mu     sync.Mutex
	suites map[string]*models.Suite
	nextID int

	listErr        error
	partialFailure bool
	flagged        []string
}

func newFakeSuiteRepo() *fakeSuiteRepo {
	return &fakeSuiteRepo{suites: make(map[string]*models.Suite)}
}

func (r *fakeSuiteRepo) add(suite *models.Suite) *models.Suite {
	r.mu.Lock()
	defer r.mu.Unlock()
	if suite.ID == "" {
		r.nextID++
		suite.ID = fmt.Sprintf("suite-%d", r.nextID)
	}
	r.suites[suite.ID] = suite
	return suite
}

func (r *fakeSuiteRepo) Create(_ context.Context, suite *models.Suite) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("suite-%d", r.nextID)
	clone := *suite
	clone.ID = id
	r.suites[id] = &clone
	return id, nil
}

func (r *fakeSuiteRepo) GetByID(_ context.Context, suiteID string) (*models.Suite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	suite, ok := r.suites[suiteID]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *suite
	return &clone, nil
}

func (r *fakeSuiteRepo) ListVisible(_ context.Context, ownerID, uid string) (*db.SuiteListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var visible []*models.Suite
	for _, suite := range r.suites {
		if suite.OwnerID == ownerID || suite.HasMember(uid) || suite.HasAdmin(uid) {
			clone := *suite
			visible = append(visible, &clone)
		}
	}
	// Descending creation time, matching the Firestore query ordering.
	for i := 0; i < len(visible); i++ {
		for j := i + 1; j < len(visible); j++ {
			if visible[j].CreatedAt.After(visible[i].CreatedAt) {
				visible[i], visible[j] = visible[j], visible[i]
			}
		}
	}
	return &db.SuiteListResult{Suites: visible, PartialFailure: r.partialFailure}, nil
}

func (r *fakeSuiteRepo) CountByOwnerID(_ context.Context, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, suite := range r.suites {
		if suite.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeSuiteRepo) Update(_ context.Context, suite *models.Suite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suites[suite.ID]; !ok {
		return db.ErrNotFound
	}
	clone := *suite
	r.suites[suite.ID] = &clone
	return nil
}

func (r *fakeSuiteRepo) Delete(_ context.Context, suiteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.suites, suiteID)
	return nil
}

func (r *fakeSuiteRepo) FlagInactive(_ context.Context, suiteIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flagged = append(r.flagged, suiteIDs...)
	for _, id := range suiteIDs {
		if suite, ok := r.suites[id]; ok {
			suite.Inactive = true
		}
	}
	return nil
}

// fakeBugReportRepo is an in-memory db.BugReportRepository keyed by suite.
type fakeBugReportRepo struct {
	mu      sync.Mutex
	reports map[string]map[string]*models.BugReport
	nextID  int
}

func newFakeBugReportRepo() *fakeBugReportRepo {
	return &fakeBugReportRepo{reports: make(map[string]map[string]*models.BugReport)}
}

func (r *fakeBugReportRepo) Create(_ context.Context, suiteID string, report *models.BugReport) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("report-%d", r.nextID)
	if r.reports[suiteID] == nil {
		r.reports[suiteID] = make(map[string]*models.BugReport)
	}
	clone := *report
	clone.ID = id
	r.reports[suiteID][id] = &clone
	return id, nil
}

func (r *fakeBugReportRepo) GetByID(_ context.Context, suiteID, reportID string) (*models.BugReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[suiteID][reportID]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *report
	return &clone, nil
}

func (r *fakeBugReportRepo) GetBySuiteID(_ context.Context, suiteID string, limit int) ([]*models.BugReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.BugReport
	for _, report := range r.reports[suiteID] {
		clone := *report
		out = append(out, &clone)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeBugReportRepo) Update(_ context.Context, suiteID string, report *models.BugReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[suiteID][report.ID]; !ok {
		return db.ErrNotFound
	}
	clone := *report
	r.reports[suiteID][report.ID] = &clone
	return nil
}

func (r *fakeBugReportRepo) Delete(_ context.Context, suiteID, reportID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reports[suiteID], reportID)
	return nil
}

// fakeSprintRepo is an in-memory db.SprintRepository keyed by suite.
type fakeSprintRepo struct {
	mu      sync.Mutex
	sprints map[string]map[string]*models.Sprint
	nextID  int
}

func newFakeSprintRepo() *fakeSprintRepo {
	return &fakeSprintRepo{sprints: make(map[string]map[string]*models.Sprint)}
}

func (r *fakeSprintRepo) Create(_ context.Context, suiteID string, sprint *models.Sprint) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("sprint-%d", r.nextID)
	if r.sprints[suiteID] == nil {
		r.sprints[suiteID] = make(map[string]*models.Sprint)
	}
	clone := *sprint
	clone.ID = id
	r.sprints[suiteID][id] = &clone
	return id, nil
}

func (r *fakeSprintRepo) GetByID(_ context.Context, suiteID, sprintID string) (*models.Sprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sprint, ok := r.sprints[suiteID][sprintID]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *sprint
	return &clone, nil
}

func (r *fakeSprintRepo) GetBySuiteID(_ context.Context, suiteID string) ([]*models.Sprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Sprint
	for _, sprint := range r.sprints[suiteID] {
		clone := *sprint
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeSprintRepo) Update(_ context.Context, suiteID string, sprint *models.Sprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sprints[suiteID][sprint.ID]; !ok {
		return db.ErrNotFound
	}
	clone := *sprint
	r.sprints[suiteID][sprint.ID] = &clone
	return nil
}

func (r *fakeSprintRepo) Delete(_ context.Context, suiteID, sprintID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sprints[suiteID], sprintID)
	return nil
}

// fakeAuditService records entries instead of persisting them.
type fakeAuditService struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (s *fakeAuditService) CreateAuditLog(_ context.Context, entry models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditService) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}
