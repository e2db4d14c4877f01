package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Forbidden("admin.authorization", "not an admin: %s", "x@example.com"))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	ce := AsCustomError(err)
	if assert.NotNil(t, ce) {
		assert.Equal(t, 403, ce.Code)
		assert.Equal(t, "not an admin: x@example.com", ce.Message)
		assert.False(t, ce.Retryable())
	}
}

func TestUpstreamIsRetryable(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Upstream("store.unavailable", cause, "list %s", "tasks")

	assert.True(t, err.Retryable())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 503, err.Code)
}
