package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

func TestStore_ReconcileCreatesAndUpdates(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "acct"), nil)
	ctx := context.Background()

	res, err := store.Reconcile(ctx, Traffic, table(trafficHeader, []string{"2024-01-01", "推荐", "10"}))
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.FileExists(t, store.Path(Traffic))

	res, err = store.Reconcile(ctx, Traffic, table(trafficHeader,
		[]string{"2024-01-01", "推荐", "15"},
		[]string{"2024-01-02", "推荐", "5"},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, 2, res.Total)

	stored, err := store.Load(Traffic)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Len())
	assert.Equal(t, "2024-01-02", stored.Rows[0].Value(domain.ColDate))
	assert.Equal(t, "15", stored.Rows[1].Value("阅读次数"))
}

func TestStore_ReconcileTwiceSameFile(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ctx := context.Background()
	incoming := table(trafficHeader,
		[]string{"2024-01-01", "推荐", ""},
		[]string{"2024-01-02", "推荐", "5"},
	)

	_, err := store.Reconcile(ctx, Traffic, incoming)
	require.NoError(t, err)
	first, err := os.ReadFile(store.Path(Traffic))
	require.NoError(t, err)

	_, err = store.Reconcile(ctx, Traffic, incoming)
	require.NoError(t, err)
	second, err := os.ReadFile(store.Path(Traffic))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestStore_EmptyUnionWritesNothing(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	res, err := store.Reconcile(context.Background(), TrafficSummary, domain.NewDataset(trafficHeader...))
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.NoFileExists(t, store.Path(TrafficSummary))
}

func TestStore_CorruptExistingIsFatal(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	corrupt := "日期,渠道,阅读次数\n2024-01-01,推荐\n"
	require.NoError(t, os.WriteFile(store.Path(Traffic), []byte(corrupt), 0644))

	_, err := store.Reconcile(context.Background(), Traffic, table(trafficHeader, []string{"2024-01-02", "推荐", "1"}))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	content, err := os.ReadFile(store.Path(Traffic))
	require.NoError(t, err)
	assert.Equal(t, corrupt, string(content), "existing file left untouched")
}

func TestStore_CancelledContext(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Reconcile(ctx, Traffic, table(trafficHeader, []string{"2024-01-02", "推荐", "1"}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, store.Path(Traffic))
}
