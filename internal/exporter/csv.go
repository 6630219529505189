package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wxdata/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteDataset replaces the file at filePath with ds. Unset fields are
// written as empty cells.
func (w *CSVWriter) WriteDataset(filePath string, ds *domain.Dataset) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", ds.Len()))

	sw, err := w.CreateStreamWriter(filePath, ds.Columns)
	if err != nil {
		return err
	}

	for i, r := range ds.Rows {
		if err := sw.WriteRecord(r.Cells(ds.Columns)); err != nil {
			sw.Abort()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return sw.Close()
}

// StreamWriter writes CSV rows to a temporary file that replaces the
// target on Close. Abort discards it and leaves the target untouched.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	target string
}

// CreateStreamWriter creates a new streaming CSV writer for filePath
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	sw := &StreamWriter{
		file:   file,
		writer: csv.NewWriter(file),
		target: filePath,
	}

	// Write BOM for Excel compatibility
	if _, err := file.Write(utf8BOM); err != nil {
		sw.Abort()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	if len(headers) > 0 {
		if err := sw.writer.Write(headers); err != nil {
			sw.Abort()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return sw, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the rows and moves the temporary file over the target.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		s.Abort()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(s.file.Name(), 0644); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(s.file.Name(), s.target); err != nil {
		os.Remove(s.file.Name())
		return fmt.Errorf("failed to replace %s: %w", s.target, err)
	}
	return nil
}

// Abort discards the temporary file
func (s *StreamWriter) Abort() error {
	s.file.Close()
	return os.Remove(s.file.Name())
}
