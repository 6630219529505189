package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "malformed export", errType: ErrTypeMalformedExport, expected: "MALFORMED_EXPORT"},
		{name: "ambiguous label", errType: ErrTypeAmbiguousLabel, expected: "AMBIGUOUS_LABEL"},
		{name: "missing column", errType: ErrTypeMissingColumn, expected: "MISSING_REQUIRED_COLUMN"},
		{name: "key collision", errType: ErrTypeKeyCollision, expected: "MERGE_KEY_COLLISION_INTERNAL"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "locked", errType: ErrTypeLocked, expected: "LOCKED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "message only",
			err:      NewMalformedExportError("table 2 has no header row"),
			expected: "[MALFORMED_EXPORT] table 2 has no header row",
		},
		{
			name:     "with cause",
			err:      NewStorageError("read traffic.csv", fmt.Errorf("permission denied")),
			expected: "[STORAGE] read traffic.csv: permission denied",
		},
		{
			name:     "with sorted context",
			err:      NewMissingColumnError("性别分布", "占比").WithContext("file", "a.xlsx"),
			expected: `[MISSING_REQUIRED_COLUMN] column "占比" not found file=a.xlsx table=性别分布`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("write", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsType(t *testing.T) {
	base := NewAmbiguousLabelError("数据概况", "阅读次数")
	wrapped := fmt.Errorf("article a.xlsx: %w", base)

	assert.True(t, IsType(wrapped, ErrTypeAmbiguousLabel))
	assert.False(t, IsType(wrapped, ErrTypeMalformedExport))
	assert.False(t, IsType(errors.New("plain"), ErrTypeStorage))
	assert.False(t, IsType(nil, ErrTypeStorage))
}

func TestTypeOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewKeyCollisionError("traffic", "2024-01-01"))

	assert.Equal(t, ErrTypeKeyCollision, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeValidation, Message: "bad"}
	require.Nil(t, err.Context)

	err.WithContext("field", "end_date")

	require.NotNil(t, err.Context)
	assert.Equal(t, "end_date", err.Context["field"])
}

func TestAppError_AsTarget(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewLockedError("/tmp/x.lock", errors.New("EWOULDBLOCK")))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeLocked, appErr.Type)
	assert.Equal(t, "/tmp/x.lock", appErr.Context["path"])
}
