// Package blockdev is the vdisk port SSFS's core is built against: a thin
// contract over a fixed-size array of 1024-byte blocks (spec.md section 4.1).
//
// The core never opens a raw file itself; it only ever talks to a Device.
// This package also supplies two concrete Devices -- a file-backed one for
// real use and an in-memory one for tests -- but neither is part of the
// core's contract surface. Modeled on the teacher's
// drivers/common.BlockStream, generalized from a parameterized block size to
// SSFS's fixed 1024-byte block.
package blockdev

import (
	"fmt"
	"io"
	"os"

	ssfserrors "github.com/dargueta/ssfs/errors"
)

// BlockSize is the fixed block size SSFS uses everywhere: superblock,
// inodes, and data blocks are all exactly this many bytes (spec.md section 3).
const BlockSize = 1024

// Device is the vdisk port: open/close/sector_count/read_block/write_block/
// sync, exactly as named in spec.md section 4.1. A Device's block count is
// fixed for the lifetime of a mount -- it's derived from the backing file's
// length at Open time and never changes underneath the core.
type Device interface {
	// SectorCount returns the number of BlockSize-byte blocks in the device.
	SectorCount() uint32

	// ReadBlock reads block n into buf, which must be exactly BlockSize bytes.
	ReadBlock(n uint32, buf []byte) error

	// WriteBlock writes buf (exactly BlockSize bytes) to block n.
	WriteBlock(n uint32, buf []byte) error

	// Sync forces any buffered writes to reach durable storage.
	Sync() error

	// Close releases the device's resources. The device must not be used
	// afterward.
	Close() error
}

// checkBounds validates a block index and buffer length shared by every
// Device implementation's Read/WriteBlock.
func checkBounds(n uint32, total uint32, buf []byte) error {
	if n >= total {
		return ssfserrors.ErrIOFailed.WithMessage(
			fmt.Sprintf("block %d not in range [0, %d)", n, total))
	}
	if len(buf) != BlockSize {
		return ssfserrors.ErrIOFailed.WithMessage(
			fmt.Sprintf("buffer must be exactly %d bytes, got %d", BlockSize, len(buf)))
	}
	return nil
}

// ensureFull translates a short read/write, which a well-behaved Device
// implementation should never produce for a single in-bounds block, into an
// ErrIOFailed.
func ensureFull(n int, err error, verb string) error {
	if err != nil && err != io.EOF {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	if n != BlockSize {
		return ssfserrors.ErrIOFailed.WithMessage(
			fmt.Sprintf("short %s: got %d of %d bytes", verb, n, BlockSize))
	}
	return nil
}

// blockOffset computes the byte offset of block n within the device stream.
func blockOffset(n uint32) int64 {
	return int64(n) * int64(BlockSize)
}

var _ Device = (*FileDevice)(nil)
var _ Device = (*MemoryDevice)(nil)

// statSectorCount derives a device's block count from a file's length, per
// spec.md section 4.1 ("the file's length in 1024-byte units defines the
// device's block count").
func statSectorCount(f *os.File) (uint32, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, ssfserrors.ErrIOFailed.WrapError(err)
	}
	return uint32(info.Size() / BlockSize), nil
}
