// Package outdir guards the server's output directory with an advisory
// file lock, adapted from the teacher's flock.go (which locks a barreldb
// data directory against a second writer process) to this pipeline's
// INCHROSIL_OUT_DIR: only one dna-server process should persist .ich
// files into a given directory at a time.
package outdir

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const lockFileName = ".dnapipe.lock"

// Lock acquires an exclusive, non-blocking advisory lock on dir, returning
// a handle to release with Unlock. It fails fast if another process
// already holds the lock, rather than silently racing writes into the
// same directory.
func Lock(dir string) (*os.File, error) {
	path := filepath.Join(dir, lockFileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create lock file %q: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot acquire lock on output dir %q: %w", dir, err)
	}
	return f, nil
}

// Unlock releases and removes the lock file acquired by Lock.
func Unlock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("cannot unlock %q: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close %q: %w", f.Name(), err)
	}
	if err := os.Remove(f.Name()); err != nil {
		return fmt.Errorf("cannot remove lock file %q: %w", f.Name(), err)
	}
	return nil
}
