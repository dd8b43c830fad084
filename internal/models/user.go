package models

import (
	"time"
)

// User is an account that can author recipes and follow other authors.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;not null;uniqueIndex;uniqueIndex:idx_users_username_email,priority:2" json:"email"`
	Username     string    `gorm:"size:150;not null;uniqueIndex;uniqueIndex:idx_users_username_email,priority:1" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
}
