package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	v := validationError("fid is required")
	assert.ErrorIs(t, v, ErrValidation)
	assert.NotErrorIs(t, v, ErrNotFound)
	assert.Equal(t, KindValidation, KindOf(v))

	n := notFoundError("voice %s not found", "abc")
	assert.ErrorIs(t, n, ErrNotFound)
	assert.Equal(t, "not_found: voice abc not found", n.Error())

	cause := errors.New("connection reset")
	s := storageError("failed to toggle like", cause)
	assert.ErrorIs(t, s, ErrStorage)
	assert.ErrorIs(t, s, cause)

	assert.Equal(t, n, storageError("wrapped", n), "service errors keep their kind")
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("outer: %w", n)))
	assert.Equal(t, KindStorage, KindOf(cause))
}
