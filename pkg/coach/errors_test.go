package coach

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoachError_Format(t *testing.T) {
	err := &CoachError{Op: "HandleMessage", Err: ErrStorageOperation}
	assert.Equal(t, "coachbot: HandleMessage: storage operation failed", err.Error())
}

func TestCoachError_Unwrap(t *testing.T) {
	err := NewCoachError("NewStorage", ErrConnectionFailed)
	assert.True(t, errors.Is(err, ErrConnectionFailed))

	var coachErr *CoachError
	assert.True(t, errors.As(err, &coachErr))
	assert.Equal(t, "NewStorage", coachErr.Op)
}

func TestNewCoachError_NilPassthrough(t *testing.T) {
	assert.Nil(t, NewCoachError("HandleMessage", nil))
}
