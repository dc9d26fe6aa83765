//go:build !linux

package mxfio

import (
	"fmt"
	"os"

	"github.com/bmx-go/bmx/errs"
)

// preallocate grows f to at least size bytes. Non-Linux platforms fall back
// to a plain truncate; the growth-chunk policy still amortizes resize cost,
// it just doesn't get fallocate's guaranteed-contiguous-extent benefit.
func preallocate(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}
