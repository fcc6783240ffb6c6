package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload carried by an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewClaims returns claims for subject acting with role.
func NewClaims(subject, role string) Claims {
	return Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}
}

// ExpiresTime returns the expiry, or the zero time when the claims have none.
func (c Claims) ExpiresTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.UTC()
}

// TokenSigner issues and verifies HS256 JSON web tokens.
type TokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner creates a TokenSigner. Tokens it issues are valid for ttl.
func NewTokenSigner(secret, issuer string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, errors.New("crypto: token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("crypto: token ttl must be positive")
	}
	return &TokenSigner{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Sign issues a token for subject with the given role.
func (s *TokenSigner) Sign(subject, role string) (string, Claims, error) {
	now := s.now().UTC()
	claims := NewClaims(subject, role)
	claims.Issuer = s.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("crypto: sign token: %w", err)
	}
	return token, claims, nil
}

// Verify checks the token's signature, algorithm, issuer and expiry and returns
// its claims.
func (s *TokenSigner) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case claims.Subject == "":
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
