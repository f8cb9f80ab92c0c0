package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid authority credentials")
	ErrMissingToken       = errors.New("authorization token missing")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrExpired            = errors.New("token expired")
	ErrMalformedClaims    = errors.New("invalid token claims")
)
