package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewBadRequest("bad field", nil).StatusCode())
	assert.Equal(t, http.StatusInternalServerError, NewInternal(errors.New("boom")).StatusCode())
}

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("cause")
	err := NewBadRequest("invalid request", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid request: cause", err.Error())
	assert.Equal(t, "bare message", NewBadRequest("bare message", nil).Error())
}
