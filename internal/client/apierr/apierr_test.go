package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusTooManyRequests, KindUnavailable},
		{http.StatusBadGateway, KindUnavailable},
		{http.StatusForbidden, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, KindFromStatus(tt.status))
		})
	}
}

func TestFromResponse(t *testing.T) {
	t.Run("error_string", func(t *testing.T) {
		err := FromResponse(http.StatusUnauthorized, []byte(`{"error":"Incorrect username or password"}`))
		assert.Equal(t, KindUnauthorized, err.Kind)
		assert.Equal(t, "Incorrect username or password", err.Message)
	})

	t.Run("error_object", func(t *testing.T) {
		err := FromResponse(http.StatusBadRequest, []byte(`{"error":{"code":"validation_error","message":"title is required"}}`))
		assert.Equal(t, KindValidation, err.Kind)
		assert.Equal(t, "title is required", err.Message)
	})

	t.Run("detail", func(t *testing.T) {
		err := FromResponse(http.StatusNotFound, []byte(`{"detail":"Service not found"}`))
		assert.Equal(t, "Service not found", err.Message)
	})

	t.Run("plain_text", func(t *testing.T) {
		err := FromResponse(http.StatusBadGateway, []byte("upstream down\n"))
		assert.Equal(t, KindUnavailable, err.Kind)
		assert.Equal(t, "upstream down", err.Message)
	})

	t.Run("empty_body", func(t *testing.T) {
		err := FromResponse(http.StatusInternalServerError, nil)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), err.Message)
	})
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("update service: %w", FromResponse(http.StatusNotFound, nil))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, IsNotFound(err))
}

func TestUnavailableUnwrap(t *testing.T) {
	err := Unavailable(context.DeadlineExceeded)

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "unavailable: context deadline exceeded", err.Error())
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "", MessageOf(nil))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
	assert.Equal(t, "gone", MessageOf(New(KindNotFound, "gone")))
}
