package blockdev

import (
	"os"

	ssfserrors "github.com/dargueta/ssfs/errors"
)

// FileDevice is a Device backed by a regular file on the host filesystem.
// Its block count is fixed at Open time to the file's length in
// BlockSize-byte units and does not change for the lifetime of the mount,
// per spec.md section 4.1.
type FileDevice struct {
	file    *os.File
	sectors uint32
}

// OpenFileDevice opens path for reading and writing and wraps it as a
// Device. The file's length must already be a multiple of BlockSize; format()
// is responsible for creating files of the right size.
func OpenFileDevice(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, ssfserrors.ErrIOFailed.WrapError(err)
	}

	sectors, err := statSectorCount(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FileDevice{file: f, sectors: sectors}, nil
}

// CreateFileDevice creates (or truncates) path to exactly sectorCount blocks
// of zeroed bytes and returns a Device over it. This is a convenience used
// by format(); it is not part of the vdisk port itself.
func CreateFileDevice(path string, sectorCount uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, ssfserrors.ErrIOFailed.WrapError(err)
	}

	size := int64(sectorCount) * int64(BlockSize)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, ssfserrors.ErrIOFailed.WrapError(err)
	}

	return &FileDevice{file: f, sectors: sectorCount}, nil
}

func (d *FileDevice) SectorCount() uint32 {
	return d.sectors
}

func (d *FileDevice) ReadBlock(n uint32, buf []byte) error {
	if err := checkBounds(n, d.sectors, buf); err != nil {
		return err
	}

	read, err := d.file.ReadAt(buf, blockOffset(n))
	return ensureFull(read, err, "read")
}

func (d *FileDevice) WriteBlock(n uint32, buf []byte) error {
	if err := checkBounds(n, d.sectors, buf); err != nil {
		return err
	}

	written, err := d.file.WriteAt(buf, blockOffset(n))
	if err != nil {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	if written != BlockSize {
		return ssfserrors.ErrIOFailed.WithMessage("short write")
	}
	return nil
}

func (d *FileDevice) Sync() error {
	if err := d.file.Sync(); err != nil {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	return nil
}

func (d *FileDevice) Close() error {
	if err := d.file.Close(); err != nil {
		return ssfserrors.ErrIOFailed.WrapError(err)
	}
	return nil
}
