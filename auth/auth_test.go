package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "AVeryS0lidPassword!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword1!", hash)
	req.NoError(err)
	req.False(match)
}

func TestSignUpValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     SignUpRequest
		wantErr bool
	}{
		{"Valid request", SignUpRequest{"test@example.com", "ComplexPass123!"}, false},
		{"Invalid email", SignUpRequest{"notanemail", "ComplexPass123!"}, true},
		{"Password too short", SignUpRequest{"test@example.com", "Short1!"}, true},
		{"Missing digit", SignUpRequest{"test@example.com", "NoDigitPassword!"}, true},
		{"Missing special char", SignUpRequest{"test@example.com", "NoSpecialChar123"}, true},
		{"Missing uppercase", SignUpRequest{"test@example.com", "nouppercase12345!"}, true},
		{"Password too long", SignUpRequest{"test@example.com", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignUp(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)
	secret := []byte("test_signing_secret_for_tokens")

	token, err := GenerateToken(secret, "user-1", "user@example.com", time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(secret, token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("user@example.com", claims.Email)

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		_, err := ValidateToken([]byte("a_different_secret_entirely"), token)
		require.Error(t, err)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		expired, err := GenerateToken(secret, "user-1", "user@example.com", -time.Minute)
		require.NoError(t, err)
		_, err = ValidateToken(secret, expired)
		require.Error(t, err)
	})
}
