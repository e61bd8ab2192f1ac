package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/shophub-api/config"
	"github.com/FACorreiaa/shophub-api/internal/types"
)

const DefaultTokenTTL = 30 * 24 * time.Hour

var _ TokenIssuer = (*TokenManager)(nil)

// TokenIssuer mints and checks bearer tokens bound to a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	// Verify returns the subject of a valid token, or one of
	// types.ErrTokenMalformed, types.ErrTokenInvalidSignature, types.ErrTokenExpired.
	Verify(token string) (string, error)
}

// TokenManager signs HS256 tokens with a secret fixed at construction.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(cfg config.JWTConfig, opts ...TokenOption) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("token manager: secret key is empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &TokenManager{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("issue token: empty subject")
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// a foreign algorithm is a malformed token, not a bad signature
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", types.ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", types.ErrTokenExpired
		default:
			return "", fmt.Errorf("%w: %v", types.ErrTokenMalformed, err)
		}
	}
	if !token.Valid || claims.Subject == "" {
		return "", types.ErrTokenMalformed
	}
	return claims.Subject, nil
}
