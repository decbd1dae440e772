package blockdev

import (
	"io"

	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/xaionaro-go/bytesextra"
)

// MemoryDevice is a Device backed by a plain byte slice rather than a real
// file. It exists for tests and for callers who want to format/mount an
// in-memory scratch volume without touching the filesystem; it's not part
// of the core's vdisk port contract. Modeled on the teacher's
// testing.LoadDiskImage, which wraps a []byte with
// bytesextra.NewReadWriteSeeker to get an io.ReadWriteSeeker.
type MemoryDevice struct {
	stream  io.ReadWriteSeeker
	sectors uint32
}

// NewMemoryDevice creates a zero-filled in-memory device of sectorCount
// blocks.
func NewMemoryDevice(sectorCount uint32) *MemoryDevice {
	data := make([]byte, int64(sectorCount)*int64(BlockSize))
	return &MemoryDevice{
		stream:  bytesextra.NewReadWriteSeeker(data),
		sectors: sectorCount,
	}
}

// WrapMemoryDevice builds a Device directly from existing bytes, whose
// length must be a multiple of BlockSize. Useful for tests that want to
// inspect or pre-seed the backing bytes.
func WrapMemoryDevice(data []byte) (*MemoryDevice, error) {
	if len(data)%BlockSize != 0 {
		return nil, ssfserrors.ErrIOFailed.WithMessage("image length is not a multiple of the block size")
	}
	return &MemoryDevice{
		stream:  bytesextra.NewReadWriteSeeker(data),
		sectors: uint32(len(data) / BlockSize),
	}, nil
}

func (d *MemoryDevice) SectorCount() uint32 {
	return d.sectors
}

func (d *MemoryDevice) ReadBlock(n uint32, buf []byte) error {
	if err := checkBounds(n, d.sectors, buf); err != nil {
		return err
	}
	if _, err := d.stream.Seek(blockOffset(n), io.SeekStart); err != nil {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	read, err := io.ReadFull(d.stream, buf)
	return ensureFull(read, err, "read")
}

func (d *MemoryDevice) WriteBlock(n uint32, buf []byte) error {
	if err := checkBounds(n, d.sectors, buf); err != nil {
		return err
	}
	if _, err := d.stream.Seek(blockOffset(n), io.SeekStart); err != nil {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	written, err := d.stream.Write(buf)
	if err != nil {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	if written != BlockSize {
		return ssfserrors.ErrIOFailed.WithMessage("short write")
	}
	return nil
}

// Sync is a no-op: there's no OS buffering to flush for an in-memory device.
func (d *MemoryDevice) Sync() error {
	return nil
}

// Close is a no-op: there's no underlying handle to release.
func (d *MemoryDevice) Close() error {
	return nil
}
