package domain

import (
	"time"
)

const DefaultAvatar = "no-image.jpg"

// User is also the session cache payload; secrets are excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RefreshToken *string   `json:"-"` // latest issued, nil until first login
	Confirmed    bool      `json:"confirmed"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser is what signup hands to the repository; the DB fills in the rest.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}
