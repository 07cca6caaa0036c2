package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/avatar"
	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/repository"
)

const MaxAvatarBytes = 5 << 20

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// SessionInvalidator drops a user's cached session entry.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, email string) error
}

type UserUsecase struct {
	users    repository.UserRepository
	storage  avatar.Storage
	sessions SessionInvalidator
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserUsecase(users repository.UserRepository, storage avatar.Storage, sessions SessionInvalidator, logger *slog.Logger) *UserUsecase {
	return &UserUsecase{
		users:    users,
		storage:  storage,
		sessions: sessions,
		logger:   logger.With("component", "users"),
		now:      time.Now,
	}
}

// UpdateAvatar uploads the image and points the user's avatar at it. The
// URL carries a version suffix because the object key never changes.
func (u *UserUsecase) UpdateAvatar(ctx context.Context, user *domain.User, file io.Reader, size int64, contentType string) (*domain.User, error) {
	if size <= 0 || size > MaxAvatarBytes {
		return nil, &domain.ValidationError{Field: "file", Message: "avatar must be between 1 byte and 5 MiB"}
	}
	if !avatarTypes[contentType] {
		return nil, &domain.ValidationError{Field: "file", Message: "unsupported image type " + contentType}
	}

	url, err := u.storage.Put(ctx, avatar.Key(user.Email), file, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: upload avatar: %w", domain.ErrUnavailable, err)
	}
	url = fmt.Sprintf("%s?v=%d", url, u.now().Unix())

	updated, err := u.users.SetAvatar(ctx, user.Email, url)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}

	if err := u.sessions.Invalidate(ctx, user.Email); err != nil {
		u.logger.WarnContext(ctx, "session entry not invalidated", "user_id", user.ID, "error", err)
	}
	return updated, nil
}
