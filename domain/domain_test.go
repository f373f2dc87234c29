package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"eight characters", "admin", "12345678", false},
		{"seven characters", "admin", "1234567", true},
		{"four multibyte characters", "admin", "ab€€", true},
		{"eight multibyte characters", "admin", "ab€€€€€€", false},
		{"empty password", "admin", "", true},
		{"blank username", "  ", "12345678", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))

	other, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "each hash carries its own salt")
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostValidate(t *testing.T) {
	assert.NoError(t, Post{Title: "t", Body: "b"}.Validate())
	assert.ErrorIs(t, Post{Title: " ", Body: "b"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Post{Title: "t"}.Validate(), ErrValidation)
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}

func TestDuplicateUsernameIsValidation(t *testing.T) {
	assert.ErrorIs(t, ErrDuplicateUsername, ErrValidation)
}
