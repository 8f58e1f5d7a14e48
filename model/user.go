// Package model defines database models
package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey" json:"-"`
	FullName     string `json:"full_name"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Opaque bearer token identifying the user on the chat endpoint.
	// Generated once at signup, never rotated
	APIKey string `gorm:"unique;not null" json:"-"`

	Plan         string `gorm:"not null;default:free" json:"plan"`
	RequestsUsed int    `gorm:"not null;default:0" json:"requests_used"`
	RequestLimit int    `gorm:"not null" json:"request_limit"`

	// Governs key validity, not usage reset. Usage is a lifetime
	// counter, see the quota package
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
