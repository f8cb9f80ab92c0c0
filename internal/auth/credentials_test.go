package auth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smartpothole/backend/internal/auth"
	"smartpothole/backend/internal/models"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestCredentialStore_Authenticate(t *testing.T) {
	store := auth.NewCredentialStore([]models.Authority{
		{AuthorityID: "Ward-7", PasswordHash: mustHash(t, "pothole123")},
		{AuthorityID: "roads-admin", PasswordHash: mustHash(t, "asphalt"), Role: "authority"},
	})

	tests := []struct {
		name     string
		id       string
		password string
		wantID   string
		wantErr  error
	}{
		{name: "exact", id: "Ward-7", password: "pothole123", wantID: "Ward-7"},
		{name: "case insensitive", id: "WARD-7", password: "pothole123", wantID: "Ward-7"},
		{name: "trimmed", id: "  ward-7 \t", password: "pothole123", wantID: "Ward-7"},
		{name: "wrong password", id: "ward-7", password: "nope", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown id", id: "ward-8", password: "pothole123", wantErr: auth.ErrInvalidCredentials},
		{name: "password is case sensitive", id: "roads-admin", password: "ASPHALT", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Authenticate(tt.id, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.AuthorityID)
			assert.Equal(t, "authority", got.Role)
		})
	}
}

func TestCredentialStore_FirstMatchWins(t *testing.T) {
	store := auth.NewCredentialStore([]models.Authority{
		{AuthorityID: "dup", PasswordHash: mustHash(t, "first")},
		{AuthorityID: "DUP", PasswordHash: mustHash(t, "second")},
	})

	_, err := store.Authenticate("dup", "second")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	got, err := store.Authenticate("dup", "first")
	require.NoError(t, err)
	assert.Equal(t, "dup", got.AuthorityID)
}

func TestCredentialStore_AcceptsPythonBcryptPrefix(t *testing.T) {
	hash := mustHash(t, "legacy")
	// Hashes produced by other bcrypt implementations carry the $2b$ prefix.
	legacy := "$2b$" + hash[4:]
	store := auth.NewCredentialStore([]models.Authority{{AuthorityID: "old", PasswordHash: legacy}})

	_, err := store.Authenticate("old", "legacy")
	assert.NoError(t, err)
}

func TestLoadCredentialStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authorities.json")
	content := `{"authorities":[{"authority_id":"ward-7","password_hash":"` + mustHash(t, "pw") + `","role":"authority"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := auth.LoadCredentialStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	_, err = store.Authenticate("ward-7", "pw")
	assert.NoError(t, err)
}

func TestLoadCredentialStore_Errors(t *testing.T) {
	_, err := auth.LoadCredentialStore(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = auth.LoadCredentialStore(bad)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("pothole123")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pothole123")))
}
