package models

import "time"

// Account is an email/password identity kept in the remote database.
type Account struct {
	ID           uint   `gorm:"primaryKey"`
	UID          string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:64"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
