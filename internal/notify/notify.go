// Package notify provides the notification sink consumed by the workspace
// state machine's side effects. Notifications are fire-and-forget and
// deduplicated by caller-supplied ID.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notification types.
const (
	TypeInfo    = "info"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Notification is a user-facing message emitted as a state-machine side
// effect.
type Notification struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

// DedupSink delivers each notification ID at most once and records
// delivered notifications for later pickup by the client. Dedup state is
// reset per session via Reset.
type DedupSink struct {
	logger *zap.Logger

	mu      sync.Mutex
	seen    map[string]struct{}
	pending []Notification
}

// NewDedupSink creates a DedupSink that logs each delivered notification.
func NewDedupSink(logger *zap.Logger) *DedupSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DedupSink{
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// Show delivers n unless a notification with the same ID was already shown.
// Notifications without an ID are always delivered.
func (s *DedupSink) Show(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID != "" {
		if _, dup := s.seen[n.ID]; dup {
			return
		}
		s.seen[n.ID] = struct{}{}
	}
	s.pending = append(s.pending, n)
	s.logger.Info("Notification shown",
		zap.String("id", n.ID),
		zap.String("type", n.Type),
		zap.String("message", n.Message),
	)
}

// Drain returns and clears the pending notifications.
func (s *DedupSink) Drain() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Reset clears the dedup state. Called when a new identity session begins.
func (s *DedupSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
	s.pending = nil
}
