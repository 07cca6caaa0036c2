package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
)

type ListContactsInput struct {
	UserID     string
	CursorTime *time.Time // nil = first page
	CursorID   string     // used only when CursorTime is non-nil
	Limit      int
}

// Every method is scoped to the owning user; a contact owned by someone else
// is reported as domain.ErrContactNotFound.
type ContactRepository interface {
	Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	GetByID(ctx context.Context, id, userID string) (*domain.Contact, error)
	List(ctx context.Context, input ListContactsInput) ([]*domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	Delete(ctx context.Context, id, userID string) error
}
