package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskbot/internal/models"
)

// sweepInterval is how often idle sessions are checked for expiry
const sweepInterval = time.Minute

// SessionRegistry owns every active conversation session, keyed by user id.
// Sessions are created on the first state-entering command and removed on a
// terminal transition, explicit cancel, or idle timeout. Only the dispatcher
// goroutine mutates session state and drafts; the sweeper touches nothing
// but UpdatedAt, under the registry lock.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionRegistry creates a registry whose sessions expire after ttl of
// inactivity
func NewSessionRegistry(ttl time.Duration, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int64]*models.Session),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Open creates (or replaces) the session for a user and returns it
func (r *SessionRegistry) Open(userID, chatID int64, state models.SessionState) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &models.Session{
		UserID:    userID,
		ChatID:    chatID,
		State:     state,
		UpdatedAt: r.now(),
	}
	r.sessions[userID] = s
	return s
}

// Get returns the active session for a user, if any
func (r *SessionRegistry) Get(userID int64) (*models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	return s, ok
}

// Touch refreshes a session's idle timer
func (r *SessionRegistry) Touch(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		s.UpdatedAt = r.now()
	}
}

// Clear removes a user's session, discarding any draft
func (r *SessionRegistry) Clear(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, userID)
}

// Len returns the number of active sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Sweep runs the idle-session expiry loop until ctx is cancelled
func (r *SessionRegistry) Sweep(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := r.expireIdle(r.now()); n > 0 {
				r.logger.Info("sessions_expired", zap.Int("count", n))
			}
		}
	}
}

// expireIdle removes sessions idle longer than ttl and returns the count
func (r *SessionRegistry) expireIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for userID, s := range r.sessions {
		if now.Sub(s.UpdatedAt) > r.ttl {
			delete(r.sessions, userID)
			expired++
		}
	}
	return expired
}
