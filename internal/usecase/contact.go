package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  *time.Time
	Favorite  bool
}

type ListContactsInput struct {
	UserID string
	Cursor string
	Limit  int
}

type ListContactsResult struct {
	Contacts   []*domain.Contact
	NextCursor *string
}

type ContactUsecase struct {
	repo repository.ContactRepository
}

func NewContactUsecase(repo repository.ContactRepository) *ContactUsecase {
	return &ContactUsecase{repo: repo}
}

func (u *ContactUsecase) CreateContact(ctx context.Context, userID string, input ContactInput) (*domain.Contact, error) {
	c := input.toContact(userID)
	created, err := u.repo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateContact) {
			return nil, err
		}
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

func (u *ContactUsecase) GetContact(ctx context.Context, id, userID string) (*domain.Contact, error) {
	if !validID(id) {
		return nil, domain.ErrContactNotFound
	}
	return u.repo.GetByID(ctx, id, userID)
}

func (u *ContactUsecase) ListContacts(ctx context.Context, input ListContactsInput) (ListContactsResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	repoInput := repository.ListContactsInput{
		UserID: input.UserID,
		Limit:  limit + 1,
	}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListContactsResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	contacts, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListContactsResult{}, fmt.Errorf("list contacts: %w", err)
	}

	var nextCursor *string
	if len(contacts) == limit+1 {
		contacts = contacts[:limit]
		last := contacts[limit-1]
		s := encodeCursor(last.CreatedAt, last.ID)
		nextCursor = &s
	}
	return ListContactsResult{Contacts: contacts, NextCursor: nextCursor}, nil
}

func (u *ContactUsecase) UpdateContact(ctx context.Context, id, userID string, input ContactInput) (*domain.Contact, error) {
	if !validID(id) {
		return nil, domain.ErrContactNotFound
	}
	c := input.toContact(userID)
	c.ID = id
	return u.repo.Update(ctx, c)
}

func (u *ContactUsecase) DeleteContact(ctx context.Context, id, userID string) error {
	if !validID(id) {
		return domain.ErrContactNotFound
	}
	return u.repo.Delete(ctx, id, userID)
}

func (in ContactInput) toContact(userID string) *domain.Contact {
	return &domain.Contact{
		UserID:    userID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Birthday:  in.Birthday,
		Favorite:  in.Favorite,
	}
}

// Postgres rejects malformed uuids with a syntax error; treat them as absent.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type contactCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func decodeCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c contactCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	if !validID(c.ID) {
		return nil, "", errors.New("cursor id is not a uuid")
	}
	return &c.CreatedAt, c.ID, nil
}

func encodeCursor(createdAt time.Time, id string) string {
	b, _ := json.Marshal(contactCursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}
