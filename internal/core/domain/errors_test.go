package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("PL-TEST-1000", "test message"),
			expected: "[PL-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("PL-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[PL-TEST-1001] test message: extra info",
		},
		{
			name:     "error with details and cause",
			err:      NewDomainError("PL-TEST-1002", "test message").WithDetails("eu4").WithCause(errors.New("boom")),
			expected: "[PL-TEST-1002] test message: eu4: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("PL-TEST-1000", "message 1")
	err2 := NewDomainError("PL-TEST-1000", "message 2")
	err3 := NewDomainError("PL-TEST-1001", "message 1")

	assert.ErrorIs(t, err1, err2)
	assert.NotErrorIs(t, err1, err3)
	assert.NotErrorIs(t, err1, fmt.Errorf("some error"))
}

func TestDomainError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("initialize data logger: %w", ErrProcessNotFound.WithDetails("eu4"))

	assert.ErrorIs(t, err, ErrProcessNotFound)
	assert.True(t, IsDomainError(err, "PL-PROC-4040"))
	assert.True(t, IsDomainError(err, ""))
	assert.Equal(t, "PL-PROC-4040", GetErrorCode(err))
	assert.Equal(t, "", GetErrorCode(errors.New("plain")))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := ErrLogNotFound.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrLogNotFound.Cause, "WithCause must not mutate the sentinel")
}
