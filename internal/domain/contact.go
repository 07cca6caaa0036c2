package domain

import (
	"time"
)

type Contact struct {
	ID        string
	UserID    string // owner
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  *time.Time // nil means unknown
	Favorite  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
