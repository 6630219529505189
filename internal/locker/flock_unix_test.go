//go:build unix

package locker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	apperrors "wxdata/internal/errors"
)

func TestHeldLockIsReported(t *testing.T) {
	l := newTestLocker(t, "2024-03-10")
	require.NoError(t, os.MkdirAll(filepath.Dir(l.Path()), 0755))

	holder, err := os.OpenFile(l.Path(), os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer holder.Close()
	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_EX|unix.LOCK_NB))

	err = l.RecordDownload("acct", day("2024-03-09"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLocked))

	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_UN))
	assert.NoError(t, l.RecordDownload("acct", day("2024-03-09")))
}
