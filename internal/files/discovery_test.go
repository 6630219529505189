package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxdata/internal/config"
)

func TestFindExcelFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"b.xlsx", "a.XLSX", "notes.txt", "~$a.xlsx", ".partial.xlsx"} {
		path := filepath.Join(dir, name)
		writeFile(t, path, "x")
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.xlsx"), 0755))

	files, err := FindExcelFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "b.xlsx", files[0].Name, "oldest first")
	assert.Equal(t, "a.XLSX", files[1].Name)
	assert.Equal(t, filepath.Join(dir, "b.xlsx"), files[0].Path)
}

func TestFindExcelFiles_MissingDir(t *testing.T) {
	_, err := FindExcelFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestClassifyDownloads(t *testing.T) {
	files := []FileInfo{
		{Name: config.TrafficDownloadFile, Path: "/tmp/" + config.TrafficDownloadFile},
		{Name: "第一篇.xlsx", Path: "/tmp/第一篇.xlsx"},
		{Name: config.Article7dDownloadFile, Path: "/tmp/" + config.Article7dDownloadFile},
		{Name: "第二篇.xlsx", Path: "/tmp/第二篇.xlsx"},
	}

	d := ClassifyDownloads(files)
	assert.Equal(t, "/tmp/"+config.TrafficDownloadFile, d.Traffic)
	assert.Equal(t, "/tmp/"+config.Article7dDownloadFile, d.Article7d)
	assert.Equal(t, []string{"/tmp/第一篇.xlsx", "/tmp/第二篇.xlsx"}, d.ArticleDetails)
	assert.False(t, d.Empty())
	assert.True(t, Downloads{}.Empty())
}

func TestArticleTitle(t *testing.T) {
	assert.Equal(t, "我的文章.v2", ArticleTitle("/tmp/data/我的文章.v2.xlsx"))
	assert.Equal(t, "标题", ArticleTitle("标题.xlsx"))
}
