package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrNotFound)
	require.Equal(t, "NOT_FOUND", appErr.Code)
	require.Equal(t, http.StatusNotFound, appErr.StatusCode)

	// Wrapped AppErrors unwrap back to the sentinel.
	wrapped := fmt.Errorf("loading account: %w", ErrConflict)
	require.Equal(t, "CONFLICT", FromError(wrapped).Code)

	plain := FromError(errors.New("boom"))
	require.Equal(t, "INTERNAL_SERVER_ERROR", plain.Code)
	require.EqualError(t, plain.Unwrap(), "boom")
}

func TestWithMessageAndInternalCopy(t *testing.T) {
	custom := ErrBadRequest.WithMessage("name is required")
	require.Equal(t, "name is required", custom.Message)
	require.Equal(t, ErrBadRequest.Code, custom.Code)
	// The sentinel itself is untouched.
	require.Equal(t, "Invalid request", ErrBadRequest.Message)

	cause := errors.New("column not null")
	annotated := ErrInternalServer.WithInternal(cause)
	require.True(t, errors.Is(annotated, cause))
	require.Nil(t, ErrInternalServer.Internal)
	require.Contains(t, annotated.Error(), "column not null")
}

func TestConstructors(t *testing.T) {
	nf := NewNotFound("worklet not found")
	require.Equal(t, "NOT_FOUND", nf.Code)
	require.Equal(t, http.StatusNotFound, nf.StatusCode)
	require.Equal(t, "worklet not found", nf.Message)

	conflict := NewConflict("email already registered")
	require.Equal(t, http.StatusConflict, conflict.StatusCode)

	bad := NewBadRequest("score out of range")
	require.Equal(t, "VALIDATION_ERROR", bad.Code)

	wrapped := Wrap(errors.New("dial tcp"), "mail delivery failed")
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	require.Contains(t, wrapped.Error(), "dial tcp")
}
