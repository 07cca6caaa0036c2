package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 15 * time.Minute
	DefaultEmailTTL   = time.Hour
)

// Scope discriminates what a token may be used for. All scopes share one
// secret, so the scope claim is checked on every decode.
type Scope string

const (
	ScopeAccess      Scope = "access"
	ScopeRefresh     Scope = "refresh"
	ScopeEmailAction Scope = "email_action"
)

// Typed token strings keep scopes apart at compile time as long as a value
// stays typed. Raw header/path values are converted at the HTTP boundary.
type (
	AccessToken  string
	RefreshToken string
	EmailToken   string
)

var (
	ErrTokenMalformed  = errors.New("token malformed")
	ErrTokenSignature  = errors.New("token signature invalid")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenWrongScope = errors.New("token scope mismatch")
)

type tokenClaims struct {
	Scope Scope `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret     []byte
	Algorithm  string // HS256 (default), HS384 or HS512
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration
	Now        func() time.Time // nil means time.Now
}

type TokenIssuer struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	now        func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token issuer: empty secret")
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("token issuer: unsupported algorithm %q", cfg.Algorithm)
	}

	t := &TokenIssuer{
		secret:     cfg.Secret,
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		emailTTL:   cfg.EmailTTL,
		now:        cfg.Now,
	}
	if t.accessTTL <= 0 {
		t.accessTTL = DefaultAccessTTL
	}
	if t.refreshTTL <= 0 {
		t.refreshTTL = DefaultRefreshTTL
	}
	if t.emailTTL <= 0 {
		t.emailTTL = DefaultEmailTTL
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t, nil
}

func (t *TokenIssuer) IssueAccessToken(subject string) (AccessToken, error) {
	s, err := t.Issue(subject, ScopeAccess, t.accessTTL)
	return AccessToken(s), err
}

func (t *TokenIssuer) IssueRefreshToken(subject string) (RefreshToken, error) {
	s, err := t.Issue(subject, ScopeRefresh, t.refreshTTL)
	return RefreshToken(s), err
}

func (t *TokenIssuer) IssueEmailToken(subject string) (EmailToken, error) {
	s, err := t.Issue(subject, ScopeEmailAction, t.emailTTL)
	return EmailToken(s), err
}

// Issue signs a token for subject valid for ttl from now.
func (t *TokenIssuer) Issue(subject string, scope Scope, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", scope, err)
	}
	return signed, nil
}

// Decode verifies signature, expiry and scope and returns the subject.
// Validity is re-evaluated on every call.
func (t *TokenIssuer) Decode(raw string, expected Scope) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return "", fmt.Errorf("%w: %v", ErrTokenSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if claims.Scope != expected {
		return "", fmt.Errorf("%w: want %q, got %q", ErrTokenWrongScope, expected, claims.Scope)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims.Subject, nil
}

func (t *TokenIssuer) DecodeAccessToken(tok AccessToken) (string, error) {
	return t.Decode(string(tok), ScopeAccess)
}

// DecodeRefreshToken reports every failure as domain.ErrUnauthorized.
func (t *TokenIssuer) DecodeRefreshToken(tok RefreshToken) (string, error) {
	sub, err := t.Decode(string(tok), ScopeRefresh)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return sub, nil
}

// DecodeEmailToken reports every failure as domain.ErrInvalidVerificationLink.
func (t *TokenIssuer) DecodeEmailToken(tok EmailToken) (string, error) {
	sub, err := t.Decode(string(tok), ScopeEmailAction)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidVerificationLink, err)
	}
	return sub, nil
}
