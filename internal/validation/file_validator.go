// Package validation holds pre-flight checks on the directories a command
// reads from and writes to.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "wxdata/internal/errors"
	"wxdata/internal/files"
)

// FileValidator checks input and output directories before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory checks that dir is a readable directory and
// returns how many workbooks it holds. No workbooks is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return 0, apperrors.NewValidationError(fmt.Sprintf("input directory %s does not exist", dir), err)
	}
	if err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir), nil)
	}

	found, err := files.FindExcelFiles(dir)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to list input directory", err)
	}
	if len(found) == 0 {
		v.logger.Warn("No workbooks found", slog.String("directory", dir))
		return 0, nil
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", len(found)))
	return len(found), nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", filepath.Clean(dir)))
	return nil
}
