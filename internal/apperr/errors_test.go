package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("create user: %w", NewValidationError("email", "invalid format"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "email: invalid format")

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 1)
}

func TestValidationError_MultipleFields(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}}
	assert.Equal(t, "validation: a: x; b: y", err.Error())
}

func TestHelpers(t *testing.T) {
	assert.ErrorIs(t, NotFound("user", "42"), ErrNotFound)
	assert.ErrorIs(t, Conflict("subscription %s", "uri"), ErrConflict)

	up := Upstream("search", errors.New("dial tcp: refused"))
	assert.ErrorIs(t, up, ErrUpstreamUnavailable)
	assert.Contains(t, up.Error(), "dial tcp")
}
