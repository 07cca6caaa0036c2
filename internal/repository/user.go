package repository

import (
	"context"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u domain.NewUser) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no row matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Single-row durable writes keyed by email. None of them touch the
	// session cache.
	SetRefreshToken(ctx context.Context, email string, token *string) error
	SetConfirmed(ctx context.Context, email string) error
	SetPassword(ctx context.Context, email, passwordHash string) error
	SetAvatar(ctx context.Context, email, url string) (*domain.User, error)
}
