package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	base := errors.New("socket closed")
	err := Wrap(CodeNetwork, "request failed", base)

	require.True(t, IsCode(err, CodeNetwork))
	require.False(t, IsCode(err, CodeUnknown))
	require.ErrorIs(t, err, base)
	require.Equal(t, "request failed: socket closed", err.Error())
}

func TestWrapStatusPreservesStatusThroughChain(t *testing.T) {
	err := WrapStatus(CodeHTTP(404), "post not found", 404, nil)
	wrapped := fmt.Errorf("fetch post: %w", err)

	require.Equal(t, 404, StatusOf(wrapped))
	require.True(t, IsCode(wrapped, "HTTP_404"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, "post not found", appErr.Message)
}

func TestStatusOfPlainError(t *testing.T) {
	require.Equal(t, 0, StatusOf(errors.New("boom")))
	require.False(t, IsCode(errors.New("boom"), CodeNetwork))
}
