package quiz

import (
	"sync"
	"time"

	"classcapture-api/models"
	"classcapture-api/utils"
)

// Registry holds the live attempts, keyed by auth session then study
// session. Attempts are dropped on logout, on explicit discard, and by the
// periodic sweep of idle entries.
type Registry struct {
	mu       sync.RWMutex
	attempts map[string]map[string]*Attempt
	ttl      time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		attempts: make(map[string]map[string]*Attempt),
		ttl:      ttl,
	}
}

// Open returns the attempt for (authSessionID, studySessionID), creating an
// empty one on first open.
func (r *Registry) Open(authSessionID, studySessionID string, questions []models.QuizQuestion) *Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	byStudy, ok := r.attempts[authSessionID]
	if !ok {
		byStudy = make(map[string]*Attempt)
		r.attempts[authSessionID] = byStudy
	}

	if attempt, ok := byStudy[studySessionID]; ok {
		return attempt
	}

	attempt := NewAttempt(questions)
	byStudy[studySessionID] = attempt
	return attempt
}

// Get returns an already-open attempt, if any.
func (r *Registry) Get(authSessionID, studySessionID string) (*Attempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStudy, ok := r.attempts[authSessionID]
	if !ok {
		return nil, false
	}
	attempt, ok := byStudy[studySessionID]
	return attempt, ok
}

// Discard drops a single attempt.
func (r *Registry) Discard(authSessionID, studySessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byStudy, ok := r.attempts[authSessionID]; ok {
		delete(byStudy, studySessionID)
		if len(byStudy) == 0 {
			delete(r.attempts, authSessionID)
		}
	}
}

// DropAuthSession drops every attempt opened under an auth session. Called
// on logout so nothing quiz-related outlives the login.
func (r *Registry) DropAuthSession(authSessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, authSessionID)
}

// SweepExpired removes attempts idle past the registry TTL. Returns the
// number removed.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.ttl)
	removed := 0
	for authID, byStudy := range r.attempts {
		for studyID, attempt := range byStudy {
			if attempt.lastTouched().Before(cutoff) {
				delete(byStudy, studyID)
				removed++
			}
		}
		if len(byStudy) == 0 {
			delete(r.attempts, authID)
		}
	}

	if removed > 0 {
		utils.LogInfo("Swept %d abandoned quiz attempts", removed)
	}
	return removed
}
