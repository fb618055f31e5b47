package auth

import (
	"sync"
	"time"

	"classcapture-api/models"
	"classcapture-api/utils"
)

// SessionStore keeps active logins in memory. Expired entries are removed
// lazily on lookup and in bulk by the scheduled sweep wired up in main.
type SessionStore struct {
	sessions map[string]*models.Session
	ttl      time.Duration
	mutex    sync.RWMutex
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
	}
}

func (s *SessionStore) CreateSession(user *models.User) *models.Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sessionID := utils.GenerateSessionID()
	session := &models.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	s.sessions[sessionID] = session
	return session
}

func (s *SessionStore) GetSession(sessionID string) (*models.Session, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}

	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, sessionID)
		return nil, false
	}

	return session, true
}

func (s *SessionStore) DeleteSession(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, sessionID)
}

// SweepExpired drops every expired session and returns the count removed.
func (s *SessionStore) SweepExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	cleaned := 0
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		utils.LogInfo("Cleaned up %d expired sessions", cleaned)
	}
	return cleaned
}
