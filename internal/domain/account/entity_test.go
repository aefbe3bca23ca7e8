package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevate-hub/elevate/internal/domain/shared"
)

func TestSignupParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  SignupParams
		wantErr error
	}{
		{"ok", SignupParams{"alice", "secret1", "secret1"}, nil},
		{"missing username", SignupParams{"", "secret1", "secret1"}, shared.ErrEmptyValue},
		{"bad username", SignupParams{"a b", "secret1", "secret1"}, shared.ErrInvalidUsername},
		{"short password", SignupParams{"alice", "12345", "12345"}, shared.ErrPasswordTooShort},
		{"mismatch", SignupParams{"alice", "secret1", "secret2"}, shared.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.params.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, shared.Username("alice"), u)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestNewAccount(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	a, err := NewAccount("alice", "$2a$10$hash", created)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.True(t, a.CreatedAt.Equal(created))

	_, err = NewAccount("alice", "", created)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewAccount("x", "h", created)
	assert.ErrorIs(t, err, shared.ErrInvalidUsername)
}
