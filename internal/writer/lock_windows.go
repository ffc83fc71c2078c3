//go:build windows

package writer

import (
	"os"
)

// lockFile is a no-op on Windows; appends rely on O_APPEND atomicity.
// Robust locking there would need LockFileEx.
func lockFile(file *os.File) error {
	return nil
}

// unlockFile is a no-op on Windows, matching lockFile.
func unlockFile(file *os.File) error {
	return nil
}
