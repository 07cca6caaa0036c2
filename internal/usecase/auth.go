package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/notify"
	"github.com/ErlanBelekov/contacts-api/internal/repository"
)

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  auth.AccessToken  `json:"access_token"`
	RefreshToken auth.RefreshToken `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
}

type AuthUsecase struct {
	users    repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenIssuer
	notifier notify.Notifier
	logger   *slog.Logger
	timeout  time.Duration
}

func NewAuthUsecase(
	users repository.UserRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenIssuer,
	notifier notify.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) *AuthUsecase {
	if timeout <= 0 {
		timeout = auth.DefaultCollaboratorTimeout
	}
	return &AuthUsecase{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With("component", "auth"),
		timeout:  timeout,
	}
}

// store runs fn against the user repository under the collaborator timeout.
// User sentinels pass through; any other failure becomes domain.ErrUnavailable.
func (u *AuthUsecase) store(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil || errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUserAlreadyExists) {
		return err
	}
	return domain.Unavailable(op, err)
}

func (u *AuthUsecase) findUser(ctx context.Context, email string) (user *domain.User, err error) {
	err = u.store(ctx, "find user", func(ctx context.Context) error {
		user, err = u.users.FindByEmail(ctx, email)
		return err
	})
	return user, err
}

// Signup creates an unconfirmed account and queues the confirmation email.
// originURL is the public base the emailed link points back to.
func (u *AuthUsecase) Signup(ctx context.Context, input SignupInput, originURL string) (*domain.User, error) {
	_, err := u.findUser(ctx, input.Email)
	if err == nil {
		return nil, domain.ErrUserAlreadyExists
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := u.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	err = u.store(ctx, "create user", func(ctx context.Context) (err error) {
		user, err = u.users.Create(ctx, domain.NewUser{
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: hash,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := u.notifier.SendConfirmation(ctx, user.Email, user.Username, originURL); err != nil {
		u.logger.WarnContext(ctx, "confirmation email not queued", "email", user.Email, "error", err)
	}
	return user, nil
}

// Login checks the credentials and stores the new refresh token on the user.
// Both failure reasons surface as domain.ErrInvalidCredential.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := u.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.logger.InfoContext(ctx, "login failed", "reason", domain.CredentialUserNotFound)
			return TokenPair{}, &domain.InvalidCredentialError{Reason: domain.CredentialUserNotFound}
		}
		return TokenPair{}, err
	}

	if !u.hasher.VerifyPassword(password, user.PasswordHash) {
		u.logger.InfoContext(ctx, "login failed", "reason", domain.CredentialWrongPassword, "user_id", user.ID)
		return TokenPair{}, &domain.InvalidCredentialError{Reason: domain.CredentialWrongPassword}
	}

	return u.issuePair(ctx, user.Email)
}

// Refresh exchanges a refresh token for a new pair. Only the most recently
// issued refresh token is accepted. Presenting any other one clears the
// stored token, so the user has to log in again.
//
// Two concurrent refreshes with the same token therefore log the user out:
// the first rotates the stored token, the second arrives superseded and
// clears it, which also invalidates the pair the first one returned.
func (u *AuthUsecase) Refresh(ctx context.Context, tok auth.RefreshToken) (TokenPair, error) {
	email, err := u.tokens.DecodeRefreshToken(tok)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := u.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return TokenPair{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
		}
		return TokenPair{}, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != string(tok) {
		u.logger.WarnContext(ctx, "stale refresh token presented", "user_id", user.ID)
		err := u.store(ctx, "clear refresh token", func(ctx context.Context) error {
			return u.users.SetRefreshToken(ctx, user.Email, nil)
		})
		if err != nil {
			u.logger.WarnContext(ctx, "clear refresh token", "user_id", user.ID, "error", err)
		}
		return TokenPair{}, fmt.Errorf("%w: refresh token superseded", domain.ErrUnauthorized)
	}

	return u.issuePair(ctx, user.Email)
}

func (u *AuthUsecase) issuePair(ctx context.Context, email string) (TokenPair, error) {
	access, err := u.tokens.IssueAccessToken(email)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := u.tokens.IssueRefreshToken(email)
	if err != nil {
		return TokenPair{}, err
	}

	stored := string(refresh)
	err = u.store(ctx, "store refresh token", func(ctx context.Context) error {
		return u.users.SetRefreshToken(ctx, email, &stored)
	})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// ConfirmEmail marks the token's subject confirmed. Confirming twice is not
// an error; alreadyConfirmed reports the second case.
func (u *AuthUsecase) ConfirmEmail(ctx context.Context, tok auth.EmailToken) (alreadyConfirmed bool, err error) {
	email, err := u.tokens.DecodeEmailToken(tok)
	if err != nil {
		return false, err
	}

	user, err := u.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, fmt.Errorf("%w: %w", domain.ErrInvalidVerificationLink, err)
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	err = u.store(ctx, "confirm user", func(ctx context.Context) error {
		return u.users.SetConfirmed(ctx, email)
	})
	if err != nil {
		return false, err
	}
	u.logger.InfoContext(ctx, "email confirmed", "user_id", user.ID)
	return false, nil
}

// RequestConfirmation re-sends the confirmation email. Unknown addresses
// succeed silently.
func (u *AuthUsecase) RequestConfirmation(ctx context.Context, email, originURL string) (alreadyConfirmed bool, err error) {
	user, err := u.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Confirmed {
		return true, nil
	}

	if err := u.notifier.SendConfirmation(ctx, user.Email, user.Username, originURL); err != nil {
		u.logger.WarnContext(ctx, "confirmation email not queued", "email", user.Email, "error", err)
	}
	return false, nil
}

func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, email, originURL string) error {
	user, err := u.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return err
	}

	if err := u.notifier.SendPasswordReset(ctx, user.Email, user.Username, originURL); err != nil {
		u.logger.WarnContext(ctx, "reset email not queued", "email", user.Email, "error", err)
	}
	return nil
}

// ResetPassword replaces the password of the token's subject. A mismatched
// confirmation leaves the stored hash untouched.
func (u *AuthUsecase) ResetPassword(ctx context.Context, tok auth.EmailToken, newPassword, confirmNewPassword string) error {
	email, err := u.tokens.DecodeEmailToken(tok)
	if err != nil {
		return err
	}

	if _, err := u.findUser(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("%w: %w", domain.ErrInvalidVerificationLink, err)
		}
		return err
	}

	if newPassword != confirmNewPassword {
		return &domain.ValidationError{Field: "confirm_new_password", Message: "passwords do not match"}
	}

	hash, err := u.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = u.store(ctx, "set password", func(ctx context.Context) error {
		return u.users.SetPassword(ctx, email, hash)
	})
	if err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "password reset", "email", email)
	return nil
}
