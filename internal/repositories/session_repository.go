package repositories

import "footballshop/internal/models"

// SessionRepository defines the interface for login session storage.
type SessionRepository interface {
	Create(session *models.Session) error
	GetByKey(key string) (*models.Session, error)
	Delete(key string) error
}
