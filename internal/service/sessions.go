package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/models"
)

// session pairs the acting user with its last activity time.
type session struct {
	actor    models.Actor
	lastSeen time.Time
}

// SessionRegistry maps opaque tokens to logged-in actors. The registry
// is in-memory: one process, one storage file, sessions do not survive
// restarts. The actor's role is captured at login and carried by the
// session, not re-derived per request.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration
}

// NewSessionRegistry creates a registry expiring idle sessions after
// ttl.
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]session),
		ttl:      ttl,
	}
}

// Create opens a session for actor and returns its token.
func (r *SessionRegistry) Create(actor models.Actor) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.sessions[token] = session{actor: actor, lastSeen: time.Now()}
	r.mu.Unlock()
	return token
}

// Resolve returns the actor behind a token and refreshes its activity
// time. Expired or unknown tokens resolve to false.
func (r *SessionRegistry) Resolve(token string) (models.Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return models.Actor{}, false
	}
	if time.Since(s.lastSeen) > r.ttl {
		delete(r.sessions, token)
		return models.Actor{}, false
	}
	s.lastSeen = time.Now()
	r.sessions[token] = s
	return s.actor, true
}

// Delete closes a session.
func (r *SessionRegistry) Delete(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// StartSweeper removes expired sessions on an interval until ctx is
// done.
func (r *SessionRegistry) StartSweeper(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := r.sweep()
				if removed > 0 {
					log.Info("expired idle sessions", zap.Int("removed", removed))
				}
			}
		}
	}()
}

func (r *SessionRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for token, s := range r.sessions {
		if time.Since(s.lastSeen) > r.ttl {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed
}
