package requestid

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Header carries the request ID on both the request and the response.
const Header = "X-Request-ID"

const maxLen = 64

type (
	idKey   struct{}
	userKey struct{}
)

// New generates a random UUID v4 request ID.
func New() string {
	return uuid.NewString()
}

// FromHeader keeps a caller-supplied ID when it is short printable ASCII.
// Anything else is replaced with a new ID.
func FromHeader(raw string) string {
	if raw == "" || len(raw) > maxLen || strings.ContainsFunc(raw, unsafeRune) {
		return New()
	}
	return raw
}

func unsafeRune(r rune) bool {
	return r > unicode.MaxASCII || !unicode.IsPrint(r) || r == ' '
}

// WithRequestID returns a copy of ctx with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// FromContext extracts the request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}

// WithUserID attaches the authenticated user's ID.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
