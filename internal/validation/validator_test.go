package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=16"`
}

func TestStructPasses(t *testing.T) {
	require.NoError(t, Struct(&loginRequest{Email: "a@example.com", Password: "password1"}))
}

func TestStructUsesJSONNames(t *testing.T) {
	err := Struct(&loginRequest{Email: "nope", Password: "short"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	fields := verr.Map()
	assert.Equal(t, "email must be a valid email address", fields["email"])
	assert.Equal(t, "password must be at least 8 characters", fields["password"])
	assert.Len(t, verr.Fields, 2)
}

func TestNestedFieldPath(t *testing.T) {
	type inner struct {
		Secret string `koanf:"secret" validate:"required"`
	}
	type outer struct {
		JWT inner `koanf:"jwt"`
	}

	err := Struct(&outer{})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "jwt.secret", verr.Fields[0].Field)
	assert.Equal(t, "secret is required", verr.Fields[0].Message)
}
