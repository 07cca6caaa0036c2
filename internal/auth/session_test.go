package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/infrastructure/cache"
)

// ---- fakes ----

type fakeLookup struct {
	calls atomic.Int32
	find  func(ctx context.Context, email string) (*domain.User, error)
}

func (f *fakeLookup) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.calls.Add(1)
	return f.find(ctx, email)
}

// countingCache wraps a real store and counts writes.
type countingCache struct {
	*cache.SessionStore
	sets atomic.Int32
	gets atomic.Int32
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets.Add(1)
	return c.SessionStore.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets.Add(1)
	return c.SessionStore.Set(ctx, key, value, ttl)
}

// ---- helpers ----

var alice = &domain.User{
	ID:           "user-1",
	Username:     "alice",
	Email:        "a@example.com",
	PasswordHash: "$2a$04$secret",
	Confirmed:    true,
	Avatar:       domain.DefaultAvatar,
}

type resolverFixture struct {
	resolver *auth.SessionResolver
	issuer   *auth.TokenIssuer
	clock    *fakeClock
	cache    *countingCache
	users    *fakeLookup
	mr       *miniredis.Miniredis
}

func newResolverFixture(t *testing.T, find func(ctx context.Context, email string) (*domain.User, error)) *resolverFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	clock := newClock()
	issuer := newIssuer(t, clock)
	store := &countingCache{SessionStore: cache.NewSessionStore(client)}
	users := &fakeLookup{find: find}

	return &resolverFixture{
		resolver: auth.NewSessionResolver(issuer, store, users, slog.Default(), 0, 200*time.Millisecond),
		issuer:   issuer,
		clock:    clock,
		cache:    store,
		users:    users,
		mr:       mr,
	}
}

func findAlice(_ context.Context, email string) (*domain.User, error) {
	if email == alice.Email {
		u := *alice
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

// ---- ResolveBearer ----

func TestResolveBearer_MissThenHit(t *testing.T) {
	f := newResolverFixture(t, findAlice)
	ctx := context.Background()

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)

	user, err := f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.EqualValues(t, 1, f.users.calls.Load(), "first resolve hits the user store once")
	assert.EqualValues(t, 1, f.cache.sets.Load(), "first resolve writes the cache once")
	assert.Equal(t, auth.DefaultSessionTTL, f.mr.TTL(auth.SessionKey(alice.Email)))

	user, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, user.Email)
	assert.EqualValues(t, 1, f.users.calls.Load(), "second resolve is served from cache")
	assert.EqualValues(t, 1, f.cache.sets.Load(), "cache hits never write")
}

func TestResolveBearer_CachedEntryHasNoSecrets(t *testing.T) {
	f := newResolverFixture(t, findAlice)

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)
	_, err = f.resolver.ResolveBearer(context.Background(), tok)
	require.NoError(t, err)

	raw, err := f.mr.Get(auth.SessionKey(alice.Email))
	require.NoError(t, err)
	assert.NotContains(t, raw, alice.PasswordHash)

	var cached domain.User
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, alice.Username, cached.Username)
}

func TestResolveBearer_HitDoesNotExtendTTL(t *testing.T) {
	f := newResolverFixture(t, findAlice)
	ctx := context.Background()

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)
	_, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)

	f.mr.FastForward(5 * time.Minute)
	_, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)

	assert.Equal(t, auth.DefaultSessionTTL-5*time.Minute, f.mr.TTL(auth.SessionKey(alice.Email)))
}

func TestResolveBearer_EntryExpires_LooksUpAgain(t *testing.T) {
	f := newResolverFixture(t, findAlice)
	ctx := context.Background()

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)
	_, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)

	f.mr.FastForward(auth.DefaultSessionTTL + time.Second)

	_, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.users.calls.Load())
	assert.EqualValues(t, 2, f.cache.sets.Load())
}

func TestResolveBearer_StaleReadUntilExpiry(t *testing.T) {
	current := *alice
	f := newResolverFixture(t, func(_ context.Context, _ string) (*domain.User, error) {
		u := current
		return &u, nil
	})
	ctx := context.Background()

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)
	_, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)

	current.Username = "renamed"

	user, err := f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username, "backing store changes are not visible until the entry expires")

	require.NoError(t, f.resolver.Invalidate(ctx, alice.Email))
	user, err = f.resolver.ResolveBearer(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "renamed", user.Username)
}

func TestResolveBearer_ExpiredToken_Unauthorized(t *testing.T) {
	f := newResolverFixture(t, findAlice)

	tok, err := f.issuer.Issue(alice.Email, auth.ScopeAccess, time.Second)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)

	_, err = f.resolver.ResolveBearer(context.Background(), auth.AccessToken(tok))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestResolveBearer_DecodeFailure_DoesNotTouchCache(t *testing.T) {
	f := newResolverFixture(t, findAlice)

	refresh, err := f.issuer.IssueRefreshToken(alice.Email)
	require.NoError(t, err)

	for _, tok := range []auth.AccessToken{"garbage", auth.AccessToken(refresh)} {
		_, err := f.resolver.ResolveBearer(context.Background(), tok)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	}
	assert.Zero(t, f.cache.gets.Load())
	assert.Zero(t, f.cache.sets.Load())
	assert.Zero(t, f.users.calls.Load())
}

func TestResolveBearer_UnknownSubject_Unauthorized(t *testing.T) {
	f := newResolverFixture(t, findAlice)

	tok, err := f.issuer.IssueAccessToken("ghost@example.com")
	require.NoError(t, err)

	_, err = f.resolver.ResolveBearer(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, f.cache.sets.Load())
}

func TestResolveBearer_UserStoreError_Unavailable(t *testing.T) {
	f := newResolverFixture(t, func(_ context.Context, _ string) (*domain.User, error) {
		return nil, errors.New("connection reset")
	})

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)

	_, err = f.resolver.ResolveBearer(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolveBearer_UserStoreTimeout_Unavailable(t *testing.T) {
	f := newResolverFixture(t, func(ctx context.Context, _ string) (*domain.User, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)

	start := time.Now()
	_, err = f.resolver.ResolveBearer(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolveBearer_CacheDown_Unavailable(t *testing.T) {
	f := newResolverFixture(t, findAlice)

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)

	f.mr.Close()

	_, err = f.resolver.ResolveBearer(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Zero(t, f.users.calls.Load())
}

func TestResolveBearer_CorruptEntry_TreatedAsMiss(t *testing.T) {
	f := newResolverFixture(t, findAlice)

	require.NoError(t, f.mr.Set(auth.SessionKey(alice.Email), "not json"))

	tok, err := f.issuer.IssueAccessToken(alice.Email)
	require.NoError(t, err)

	user, err := f.resolver.ResolveBearer(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.EqualValues(t, 1, f.users.calls.Load())
	assert.EqualValues(t, 1, f.cache.sets.Load())
}
