package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/metrics"
	"github.com/ErlanBelekov/contacts-api/internal/repository"
)

const (
	DefaultSessionTTL          = 15 * time.Minute
	DefaultCollaboratorTimeout = 2 * time.Second
)

// UserLookup is the subset of the user repository the resolver needs.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionResolver turns a bearer token into a user record, reading through
// a cache keyed by email. Entries live for a fixed TTL from the write;
// reads never extend it, and user mutations do not invalidate it.
type SessionResolver struct {
	tokens  *TokenIssuer
	cache   repository.SessionCache
	users   UserLookup
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

func NewSessionResolver(
	tokens *TokenIssuer,
	cache repository.SessionCache,
	users UserLookup,
	logger *slog.Logger,
	ttl time.Duration,
	timeout time.Duration,
) *SessionResolver {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if timeout <= 0 {
		timeout = DefaultCollaboratorTimeout
	}
	return &SessionResolver{
		tokens:  tokens,
		cache:   cache,
		users:   users,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger.With("component", "session_resolver"),
	}
}

// ResolveBearer fails with domain.ErrUnauthorized for any token problem or
// unknown subject, and with domain.ErrUnavailable when the cache or user
// store cannot answer in time.
func (r *SessionResolver) ResolveBearer(ctx context.Context, tok AccessToken) (*domain.User, error) {
	email, err := r.tokens.DecodeAccessToken(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	key := SessionKey(email)

	user, err := r.fromCache(ctx, key)
	if err == nil {
		metrics.SessionCacheLookups.WithLabelValues("hit").Inc()
		return user, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, err
	}
	metrics.SessionCacheLookups.WithLabelValues("miss").Inc()

	user, err = r.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := r.store(ctx, key, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Invalidate drops the cached entry for email.
func (r *SessionResolver) Invalidate(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.cache.Delete(ctx, SessionKey(email)); err != nil {
		return domain.Unavailable("session cache delete", err)
	}
	return nil
}

func (r *SessionResolver) fromCache(ctx context.Context, key string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrCacheMiss
		}
		return nil, domain.Unavailable("session cache get", err)
	}

	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		// overwritten by the miss path
		r.logger.WarnContext(ctx, "undecodable session entry", "key", key, "error", err)
		return nil, domain.ErrCacheMiss
	}
	return &u, nil
}

func (r *SessionResolver) lookup(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
		}
		return nil, domain.Unavailable("find user", err)
	}
	return u, nil
}

func (r *SessionResolver) store(ctx context.Context, key string, u *domain.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		return domain.Unavailable("session cache set", err)
	}
	return nil
}

// SessionKey is the cache key for a user's session entry.
func SessionKey(email string) string {
	return "user:" + email
}
