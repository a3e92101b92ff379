package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/shared"
)

// DefaultTokenTTL is the lifetime embedded in tokens when no option overrides it.
const DefaultTokenTTL = 30 * 24 * time.Hour

// SignOptions tune a single Sign call.
type SignOptions struct {
	TTL time.Duration
}

// SignOption mutates SignOptions.
type SignOption func(*SignOptions)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) SignOption {
	return func(o *SignOptions) { o.TTL = ttl }
}

// TokenCodec signs and verifies HS256 bearer tokens. It holds no state besides
// the read-only secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a TokenCodec. A zero ttl selects DefaultTokenTTL.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token for claims. Every token gets a fresh jti so two tokens
// issued for the same user within one second still differ.
func (c *TokenCodec) Sign(claims Claims, opts ...SignOption) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("auth: sign: %w: signing secret not set", shared.ErrConfiguration)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("auth: sign: %w", shared.NewFieldError("userId", "subject is required"))
	}
	o := SignOptions{TTL: c.ttl}
	for _, opt := range opts {
		opt(&o)
	}

	now := c.now()
	claims.Subject = claims.UserID
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(o.TTL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return signed, nil
}

// Verify decodes token. Any validation failure returns nil claims and an error
// wrapping shared.ErrInvalidToken.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	if len(c.secret) == 0 {
		return nil, fmt.Errorf("auth: verify: %w: signing secret not set", shared.ErrConfiguration)
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, shared.ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidToken, errors.New("missing subject"))
	}
	return claims, nil
}
