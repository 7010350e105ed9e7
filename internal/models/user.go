package models

import "time"

// User represents an account of the shop.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username   string    `json:"username" gorm:"uniqueIndex;type:varchar(150);not null"`
	Password   string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	DateJoined time.Time `json:"date_joined" gorm:"autoCreateTime"`
}
