package kberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesMetadataFromCode(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{"provider unavailable", CodeProviderUnavailable, CategoryProvider, SeverityRecoverable, true},
		{"corpus load", CodeCorpusLoad, CategoryCorpus, SeverityRecoverable, true},
		{"config invalid", CodeConfigInvalid, CategoryConfig, SeverityFatal, false},
		{"cache backend", CodeCacheBackend, CategoryCache, SeverityRecoverable, true},
		{"internal", CodeInternal, CategoryInternal, SeverityRecoverable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("connection refused")
	err := ProviderUnavailable("embedder down", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, &Error{Code: CodeProviderUnavailable}))
	assert.False(t, errors.Is(err, &Error{Code: CodeCorpusLoad}))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(CodeCorpusLoad, nil))
}

func TestIsFatal_OnlyConfigErrors(t *testing.T) {
	assert.True(t, IsFatal(ConfigInvalid("bad weights")))
	assert.False(t, IsFatal(CacheBackend("unreachable", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestGetCode_WrappedChain(t *testing.T) {
	inner := CorpusLoad("load failed", errors.New("db gone"))
	wrapped := fmt.Errorf("refresh tenant t1: %w", inner)

	assert.Equal(t, CodeCorpusLoad, GetCode(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}
