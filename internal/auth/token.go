package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"smartpothole/backend/internal/config"
)

// Claims are the JWT claims carried by staff access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the verified identity behind a token.
type Principal struct {
	Subject string
	Role    string
}

// TokenService issues and verifies HMAC-signed access tokens.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService creates a token service. algorithm must name an HMAC method
// (HS256, HS384, HS512).
func NewTokenService(secret, algorithm string, ttl time.Duration, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &TokenService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// SetClock replaces the time source used for issuing and verifying.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

// Issue signs a token for subject and role that expires after the configured TTL.
func (s *TokenService) Issue(subject, role string) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Verify checks the signature, expiry and claims of tokenString.
func (s *TokenService) Verify(tokenString string) (*Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
	}

	if claims.Subject == "" || claims.Role != config.AuthorityRole {
		return nil, ErrMalformedClaims
	}

	return &Principal{Subject: claims.Subject, Role: claims.Role}, nil
}
