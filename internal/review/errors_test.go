package review

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf_KnownCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{NewValidationError("bad"), CodeValidation},
		{NewBackendError("openai", errors.New("boom")), CodeBackend},
		{NewUpstreamError(errors.New("a"), errors.New("b")), CodeUpstream},
		{NewCacheError("get", errors.New("boom")), CodeCache},
		{NewScanError("aws_access_key", errors.New("bad regex")), CodeScan},
		{NewNotFoundError("abc"), CodeNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, CodeOf(tt.err), "error: %v", tt.err)
	}
}

func TestCodeOf_WrappedError(t *testing.T) {
	inner := NewBackendError("gemini", errors.New("timeout"))
	wrapped := fmt.Errorf("execute: %w", inner)

	assert.Equal(t, CodeBackend, CodeOf(wrapped))

	var berr *BackendError
	require.ErrorAs(t, wrapped, &berr)
	assert.Equal(t, "gemini", berr.Backend)
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Empty(t, CodeOf(errors.New("plain")))
}

func TestUpstreamError_JoinsCauses(t *testing.T) {
	a := NewBackendError("openai", errors.New("429"))
	b := NewBackendError("gemini", errors.New("500"))
	err := NewUpstreamError(a, b)

	assert.Contains(t, err.Error(), "all backends failed")
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "gemini")

	// Unwrap exposes the individual backend failures.
	var berr *BackendError
	require.ErrorAs(t, error(err), &berr)
}

func TestUpstreamError_NoCauses(t *testing.T) {
	err := NewUpstreamError()
	assert.Equal(t, "all backends failed", err.Error())
}
