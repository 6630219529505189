package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wxdata/internal/errors"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantCount     int
		wantErr       bool
		errorContains string
	}{
		{
			name: "directory with workbooks",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "traffic_data.xlsx"), []byte("x"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "标题.xlsx"), []byte("x"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "~$标题.xlsx"), []byte("x"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
				return dir
			},
			wantCount: 2,
		},
		{
			name: "empty directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "non-existent directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "path is file not directory",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "test.txt")
				require.NoError(t, os.WriteFile(file, []byte("test"), 0644))
				return file
			},
			wantErr:       true,
			errorContains: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			dir := tt.setupFunc(t)

			n, err := validator.ValidateInputDirectory(dir)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	validator := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "publish", "acct")
	require.NoError(t, validator.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	err = validator.ValidateOutputDirectory(filepath.Join(blocker, "sub"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
