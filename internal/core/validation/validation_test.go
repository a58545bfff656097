package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Message
}

func TestUsername(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "alice_01", ""},
		{"empty", "", "Username is required"},
		{"bad characters", "alice!", "Username can only contain letters, numbers, and underscores"},
		{"too short", "al", "Username must be at least 3 characters"},
		{"too long", strings.Repeat("a", MaxUsernameLen+1), "Username cannot exceed 30 characters"},
		{"exact max", strings.Repeat("a", MaxUsernameLen), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Username(tc.input)
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.want, messageOf(t, err))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("a@x.com"))
	assert.NoError(t, Email("first.last@mail.example.org"))
	assert.Equal(t, "Please enter a valid email address", messageOf(t, Email("not-an-email")))
	assert.Equal(t, "Please enter a valid email address", messageOf(t, Email("a@x")))
	assert.Equal(t, "Email is required", messageOf(t, Email("")))
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("secret1"))
	assert.Equal(t, "Password must be at least 6 characters", messageOf(t, Password("12345")))
	assert.Equal(t, "Password is required", messageOf(t, Password("")))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}
