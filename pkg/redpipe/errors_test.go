package redpipe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	assert.Equal(t, "[RP-CONN-4040] connection not configured", ErrInvalidPipeline.Error())
	assert.Equal(t,
		"[RP-CONN-4040] connection not configured: users is not configured",
		ErrInvalidPipeline.WithDetails("%s is not configured", "users").Error(),
	)
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("loading: %w", ErrAlreadyConnected.WithDetails("can't change connection for %s", "default"))

	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.NotErrorIs(t, err, ErrInvalidPipeline)
	assert.True(t, IsError(err, "RP-CONN-4090"))
	assert.True(t, IsError(err, ""))
	assert.False(t, IsError(errors.New("plain"), ""))
	assert.Equal(t, "RP-CONN-4090", ErrorCode(err))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("strconv failure")
	err := ErrInvalidFieldValue.WithCause(cause).WithDetails("%q is not an integer", "x")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInvalidFieldValue)
	assert.Nil(t, ErrInvalidFieldValue.Cause, "sentinel must stay untouched")
}
