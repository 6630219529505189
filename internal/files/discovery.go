package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wxdata/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FindExcelFiles finds the workbooks directly inside dir, oldest first.
// Office lock files ("~$name.xlsx") and partial downloads are skipped.
func FindExcelFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// Sort by modification time (oldest first), then name
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Downloads groups the exports found in the download directory by kind.
type Downloads struct {
	Traffic        string
	Article7d      string
	ArticleDetails []string
}

// Empty reports whether no export was found.
func (d Downloads) Empty() bool {
	return d.Traffic == "" && d.Article7d == "" && len(d.ArticleDetails) == 0
}

// ClassifyDownloads sorts exports by their file name: the traffic and
// 7-day exports have fixed names, any other workbook is an article detail
// export named after the article.
func ClassifyDownloads(files []FileInfo) Downloads {
	var d Downloads
	for _, f := range files {
		switch f.Name {
		case config.TrafficDownloadFile:
			d.Traffic = f.Path
		case config.Article7dDownloadFile:
			d.Article7d = f.Path
		default:
			d.ArticleDetails = append(d.ArticleDetails, f.Path)
		}
	}
	return d
}

// ArticleTitle returns the article title an article detail export is
// named after: its file name without extension.
func ArticleTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
