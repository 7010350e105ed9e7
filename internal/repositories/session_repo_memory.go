package repositories

import (
	"fmt"
	"sync"

	"footballshop/internal/models"

	"github.com/google/uuid"
)

// MemorySessionRepository is an in-memory implementation of
// SessionRepository. It resolves the session's user through users.
type MemorySessionRepository struct {
	sessions map[string]models.Session
	users    UserRepository
	mu       sync.RWMutex
}

// NewMemorySessionRepository creates a new instance of MemorySessionRepository.
func NewMemorySessionRepository(users UserRepository) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]models.Session),
		users:    users,
	}
}

// Create stores a new session.
func (r *MemorySessionRepository) Create(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Key == "" {
		session.Key = uuid.New().String()
	}
	r.sessions[session.Key] = *session
	return nil
}

// GetByKey returns a session with its user filled in.
func (r *MemorySessionRepository) GetByKey(key string) (*models.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", key, ErrSessionNotFound)
	}

	user, err := r.users.GetByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", key, err)
	}
	session.User = *user
	return &session, nil
}

// Delete removes a session.
func (r *MemorySessionRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, key)
	return nil
}
