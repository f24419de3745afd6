package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("direct code", func(t *testing.T) {
		err := New(CodeNotFound, "craft not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("nested codes are all visible", func(t *testing.T) {
		inner := Wrap(cause, CodeUpstreamUnavailable, "upload metadata")
		outer := Wrap(inner, CodeIndexWriteFailed, "publish")
		assert.True(t, HasCode(outer, CodeIndexWriteFailed))
		assert.True(t, HasCode(outer, CodeUpstreamUnavailable))
		assert.ErrorIs(t, outer, cause)
	})

	t.Run("fmt wrapped", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeConflict, "duplicate"))
		assert.True(t, Is(err, CodeConflict))
		assert.Equal(t, CodeConflict, CodeOf(err))
		assert.Equal(t, "duplicate", MessageOf(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, HasCode(cause, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(cause))
	})
}

func TestError(t *testing.T) {
	err := Wrap(errors.New("timeout"), CodeUpstreamUnavailable, "create group")
	assert.Equal(t, "create group: timeout", err.Error())
	assert.Equal(t, "no cause", New(CodeInternal, "no cause").Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:          http.StatusBadRequest,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeNotFound:            http.StatusNotFound,
		CodeConflict:            http.StatusConflict,
		CodeTooManyRequests:     http.StatusTooManyRequests,
		CodeUpstreamUnavailable: http.StatusServiceUnavailable,
		CodeIndexWriteFailed:    http.StatusInternalServerError,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %s", code)
	}
}
