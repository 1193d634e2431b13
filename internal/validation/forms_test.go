package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid",
			email:    "ops@example.com",
			password: "x",
			wantErr:  false,
		},
		{
			name:     "surrounding spaces are trimmed",
			email:    "  ops@example.com ",
			password: "x",
			wantErr:  false,
		},
		{
			name:     "empty email",
			email:    "",
			password: "x",
			wantErr:  true,
			errMsg:   "email is required",
		},
		{
			name:     "malformed email",
			email:    "ops-at-example",
			password: "x",
			wantErr:  true,
			errMsg:   "email must be a valid email address",
		},
		{
			name:     "empty password",
			email:    "ops@example.com",
			password: "",
			wantErr:  true,
			errMsg:   "password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		userName string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid",
			email:    "dev@example.com",
			password: "12345678",
			userName: "Dev",
		},
		{
			name:     "short password",
			email:    "dev@example.com",
			password: "1234567",
			userName: "Dev",
			wantErr:  true,
			errMsg:   "password must be at least 8 characters",
		},
		{
			name:     "password too long",
			email:    "dev@example.com",
			password: strings.Repeat("p", MaxPasswordLen+1),
			userName: "Dev",
			wantErr:  true,
			errMsg:   "password must be at most 72 characters",
		},
		{
			name:     "blank name",
			email:    "dev@example.com",
			password: "12345678",
			userName: "   ",
			wantErr:  true,
			errMsg:   "name is required",
		},
		{
			name:     "several problems at once",
			email:    "",
			password: "",
			userName: "",
			wantErr:  true,
			errMsg:   "email is required; password is required; name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.email, tt.password, tt.userName)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestError_Issues(t *testing.T) {
	err := ValidateRegister("bad", "", "Dev")

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"email must be a valid email address",
		"password is required",
	}, ve.Issues)
}

func TestStruct_NonStruct(t *testing.T) {
	err := Struct("not a struct")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}
