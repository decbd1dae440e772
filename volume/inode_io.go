package volume

import (
	"fmt"

	"github.com/dargueta/ssfs/blockdev"
	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/dargueta/ssfs/ondisk"
)

// checkInodeRange validates that i names a slot in the inode table.
func (v *Volume) checkInodeRange(i uint32) error {
	if i >= v.inodeCapacity() {
		return ssfserrors.ErrInvalidInode.WithMessage(
			fmt.Sprintf("inode %d not in range [0, %d)", i, v.inodeCapacity()))
	}
	return nil
}

// readRawInode fetches inode i's on-disk record without validating that
// it's allocated.
func (v *Volume) readRawInode(i uint32) (ondisk.RawInode, error) {
	if err := v.checkInodeRange(i); err != nil {
		return ondisk.RawInode{}, err
	}

	blockInTable, byteOffset := ondisk.InodeLocation(i)
	var blockBuf [blockdev.BlockSize]byte
	if err := v.device.ReadBlock(1+blockInTable, blockBuf[:]); err != nil {
		return ondisk.RawInode{}, err
	}

	return ondisk.DecodeInode(blockBuf[byteOffset : byteOffset+ondisk.InodeSize])
}

// writeRawInode persists inode i's record, read-modify-write on its
// containing block since InodesPerBlock inodes are packed per block.
func (v *Volume) writeRawInode(i uint32, inode ondisk.RawInode) error {
	if err := v.checkInodeRange(i); err != nil {
		return err
	}

	blockInTable, byteOffset := ondisk.InodeLocation(i)
	var blockBuf [blockdev.BlockSize]byte
	if err := v.device.ReadBlock(1+blockInTable, blockBuf[:]); err != nil {
		return err
	}

	encoded := inode.Encode()
	copy(blockBuf[byteOffset:byteOffset+ondisk.InodeSize], encoded[:])

	return v.device.WriteBlock(1+blockInTable, blockBuf[:])
}

// readValidInode fetches inode i and errors out if it's not allocated.
func (v *Volume) readValidInode(i uint32) (ondisk.RawInode, error) {
	inode, err := v.readRawInode(i)
	if err != nil {
		return ondisk.RawInode{}, err
	}
	if !inode.IsValid() {
		return ondisk.RawInode{}, ssfserrors.ErrInvalidInode.WithMessage(
			fmt.Sprintf("inode %d is not allocated", i))
	}
	return inode, nil
}
