package models

import "time"

// Session is a server-side login session. The Key is carried, signed, in
// the session cookie.
type Session struct {
	Key       string    `gorm:"column:session_key;primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
