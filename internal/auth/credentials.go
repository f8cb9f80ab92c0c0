// Package auth authenticates staff identities and issues the bearer tokens
// that guard the dashboard API.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/models"
)

type authoritiesFile struct {
	Authorities []models.Authority `json:"authorities"`
}

// CredentialStore holds the static list of staff identities.
type CredentialStore struct {
	authorities []models.Authority
}

// NewCredentialStore wraps an in-memory identity list.
func NewCredentialStore(authorities []models.Authority) *CredentialStore {
	return &CredentialStore{authorities: authorities}
}

// LoadCredentialStore reads identities from a JSON file shaped
// {"authorities": [{"authority_id": ..., "password_hash": ..., "role": ...}]}.
func LoadCredentialStore(path string) (*CredentialStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorities file: %w", err)
	}

	var file authoritiesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse authorities file %s: %w", path, err)
	}

	return NewCredentialStore(file.Authorities), nil
}

// Len returns the number of known identities.
func (s *CredentialStore) Len() int {
	return len(s.authorities)
}

// Authenticate matches id case-insensitively after trimming whitespace and
// checks password against the stored bcrypt hash. The first identity whose id
// matches decides the outcome.
func (s *CredentialStore) Authenticate(id, password string) (*models.Authority, error) {
	wanted := strings.ToLower(strings.TrimSpace(id))

	for _, a := range s.authorities {
		if strings.ToLower(strings.TrimSpace(a.AuthorityID)) != wanted {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}

		found := a
		if found.Role == "" {
			found.Role = config.AuthorityRole
		}
		return &found, nil
	}

	return nil, ErrInvalidCredentials
}

// HashPassword produces a bcrypt hash suitable for the authorities file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
