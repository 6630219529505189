package publisher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxdata/internal/config"
)

func testPaths(t *testing.T, publish bool) *config.Paths {
	t.Helper()
	root := t.TempDir()
	p := &config.Paths{
		RootDir: root,
		DataDir: filepath.Join(root, "datas"),
	}
	if publish {
		p.PublishDir = filepath.Join(root, "share")
	}
	return p
}

func TestPublish(t *testing.T) {
	paths := testPaths(t, true)
	src := paths.AccountDir("公众号")
	require.NoError(t, os.MkdirAll(src, 0755))
	for _, name := range []string{"traffic.csv", "article_detail.csv", "article_7d.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte(name), 0644))
	}

	dst := paths.PublishAccountDir("公众号")
	require.NoError(t, os.MkdirAll(dst, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "traffic.csv"), []byte("stale"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "extra.csv"), []byte("keep"), 0644))

	n, err := New(paths, 2, nil, nil).Publish(context.Background(), "公众号")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := os.ReadFile(filepath.Join(dst, "traffic.csv"))
	require.NoError(t, err)
	assert.Equal(t, "traffic.csv", string(got), "existing files are overwritten")
	assert.FileExists(t, filepath.Join(dst, "extra.csv"))
}

func TestPublish_Disabled(t *testing.T) {
	p := New(testPaths(t, false), 4, nil, nil)
	assert.False(t, p.Enabled())

	n, err := p.Publish(context.Background(), "公众号")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublish_MissingAccountDir(t *testing.T) {
	_, err := New(testPaths(t, true), 4, nil, nil).Publish(context.Background(), "没有数据")
	assert.Error(t, err)
}

func TestPublish_Cancelled(t *testing.T) {
	paths := testPaths(t, true)
	src := paths.AccountDir("a")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "traffic.csv"), nil, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(paths, 1, nil, nil).Publish(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
