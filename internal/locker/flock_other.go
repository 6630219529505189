//go:build !unix

package locker

import (
	"errors"
	"os"
)

// No advisory locking outside unix; the state file is still read and
// written, just without cross-process exclusion.
var errWouldBlock = errors.New("lock held")

func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
