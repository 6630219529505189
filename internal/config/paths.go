package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths, resolved to absolute form.
// This is the single source of truth for file locations.
//
//	<root>/
//	  ├── datas/wechat_operation_data/<account>/   (reconciled CSV datasets)
//	  ├── tmp/data/wechat/                         (downloads, cleared per run)
//	  ├── tmp/locks/                               (download bookkeeping)
//	  ├── tmp/session/wechat/                      (browser profile)
//	  └── logs/
type Paths struct {
	RootDir    string
	DataDir    string
	TmpDir     string
	LocksDir   string
	SessionDir string
	LogsDir    string
	PublishDir string
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.TmpDir,
		p.LocksDir,
		p.SessionDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// AccountDir returns the per-account dataset directory
func (p *Paths) AccountDir(account string) string {
	return filepath.Join(p.DataDir, SanitizeName(account))
}

// PublishAccountDir returns the publish destination for an account
func (p *Paths) PublishAccountDir(account string) string {
	return filepath.Join(p.PublishDir, SanitizeName(account))
}

// LockPath returns the path of a lock file
func (p *Paths) LockPath(name string) string {
	return filepath.Join(p.LocksDir, name)
}

// DownloadPath returns the path of a file in the temp download directory
func (p *Paths) DownloadPath(filename string) string {
	return filepath.Join(p.TmpDir, filename)
}

// GetLogPath returns the path of a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs all resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Debug("Path resolution",
		slog.String("root_dir", p.RootDir),
		slog.String("data_dir", p.DataDir),
		slog.String("tmp_dir", p.TmpDir),
		slog.String("locks_dir", p.LocksDir),
		slog.String("session_dir", p.SessionDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("publish_dir", p.PublishDir))
}

// SanitizeName makes an account name or article title safe to use as a
// single path element.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name = replacer.Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
