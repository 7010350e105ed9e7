package repositories

import (
	"errors"
	"fmt"

	"footballshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSessionRepository is a GORM implementation of SessionRepository.
type GORMSessionRepository struct {
	db *gorm.DB
}

// NewGORMSessionRepository creates a new instance of GORMSessionRepository.
func NewGORMSessionRepository(db *gorm.DB) *GORMSessionRepository {
	return &GORMSessionRepository{db: db}
}

// Create stores a new session.
func (r *GORMSessionRepository) Create(session *models.Session) error {
	if session.Key == "" {
		session.Key = uuid.New().String()
	}
	if err := r.db.Omit("User").Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByKey loads a session and its user.
func (r *GORMSessionRepository) GetByKey(key string) (*models.Session, error) {
	var session models.Session
	if err := r.db.Preload("User").First(&session, "session_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", key, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session %s: %w", key, err)
	}
	return &session, nil
}

// Delete removes a session. Deleting an unknown key is not an error.
func (r *GORMSessionRepository) Delete(key string) error {
	if err := r.db.Delete(&models.Session{}, "session_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete session %s: %w", key, err)
	}
	return nil
}
