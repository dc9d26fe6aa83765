//go:build linux

package mxfio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bmx-go/bmx/errs"
)

// preallocate grows f to at least size bytes using fallocate, avoiding the
// repeated small extensions that a plain Truncate loop would otherwise cause
// across many GrowthChunkSize steps (mmap growth policy).
func preallocate(f *os.File, size int64) error {
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err != nil {
		// Some filesystems (tmpfs, certain network mounts) reject
		// fallocate; fall back to a plain truncate which still grows the
		// file, just without the preallocation guarantee.
		if truncErr := f.Truncate(size); truncErr != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, truncErr)
		}
	}
	return nil
}
