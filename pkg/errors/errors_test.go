package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeMalformedReport, "no module list"),
			expected: "[MALFORMED_REPORT] no module list",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeFetchError, "fetch failed", errors.New("connection refused")),
			expected: "[FETCH_ERROR] fetch failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("unexpected end of JSON input")
	err := Wrap(CodeMalformedReport, "invalid JSON", underlying)

	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeMalformedRecord, "record 1")
	err2 := New(CodeMalformedRecord, "record 2")
	err3 := New(CodeStorageError, "bucket")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("load stats: %w", Wrap(CodeMalformedReport, "missing modules", nil))

	assert.True(t, IsMalformedReport(wrapped))
	assert.False(t, IsMalformedRecord(wrapped))
	assert.True(t, IsMalformedRecord(New(CodeMalformedRecord, "size")))
	assert.True(t, IsNotFound(Wrap(CodeNotFound, "stats.json", nil)))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeFetchError, GetErrorCode(fmt.Errorf("x: %w", ErrFetchError)))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
	assert.Equal(t, CodeUnknown, GetErrorCode(nil))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "bad stats", GetErrorMessage(New(CodeInvalidInput, "bad stats")))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
