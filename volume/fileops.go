package volume

import (
	"github.com/dargueta/ssfs/blockdev"
	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/dargueta/ssfs/ondisk"
)

// Create allocates a fresh, empty inode and returns its number (spec.md
// section 4.6). It scans for the first free slot, matching the
// first-available convention used elsewhere in this package.
func (v *Volume) Create() (uint32, error) {
	if err := v.requireMounted(); err != nil {
		return 0, err
	}

	capacity := v.inodeCapacity()
	for i := uint32(0); i < capacity; i++ {
		inode, err := v.readRawInode(i)
		if err != nil {
			return 0, err
		}
		if inode.IsValid() {
			continue
		}

		fresh := ondisk.RawInode{Valid: 1}
		if err := v.writeRawInode(i, fresh); err != nil {
			return 0, err
		}
		return i, nil
	}

	return 0, ssfserrors.ErrOutOfInodes
}

// Delete frees every block reachable from inode i's pointer tree and zeroes
// the inode record (spec.md section 4.6). No attempt is made to scrub the
// freed data blocks themselves.
func (v *Volume) Delete(i uint32) error {
	if err := v.requireMounted(); err != nil {
		return err
	}

	inode, err := v.readValidInode(i)
	if err != nil {
		return err
	}

	if err := v.freeInodeTree(inode); err != nil {
		return err
	}

	return v.writeRawInode(i, ondisk.RawInode{})
}

func (v *Volume) freeInodeTree(inode ondisk.RawInode) error {
	for _, ptr := range inode.DirectBlocks {
		if ptr == 0 {
			continue
		}
		if err := v.free.MarkFree(ptr); err != nil {
			return err
		}
	}

	if inode.IndirectBlock != 0 {
		ptrs, err := v.readPointerBlock(inode.IndirectBlock)
		if err != nil {
			return err
		}
		for _, ptr := range ptrs {
			if ptr == 0 {
				continue
			}
			if err := v.free.MarkFree(ptr); err != nil {
				return err
			}
		}
		if err := v.free.MarkFree(inode.IndirectBlock); err != nil {
			return err
		}
	}

	if inode.DoubleIndirectBlock != 0 {
		outerPtrs, err := v.readPointerBlock(inode.DoubleIndirectBlock)
		if err != nil {
			return err
		}
		for _, indirectPtr := range outerPtrs {
			if indirectPtr == 0 {
				continue
			}
			innerPtrs, err := v.readPointerBlock(indirectPtr)
			if err != nil {
				return err
			}
			for _, leaf := range innerPtrs {
				if leaf == 0 {
					continue
				}
				if err := v.free.MarkFree(leaf); err != nil {
					return err
				}
			}
			if err := v.free.MarkFree(indirectPtr); err != nil {
				return err
			}
		}
		if err := v.free.MarkFree(inode.DoubleIndirectBlock); err != nil {
			return err
		}
	}

	return nil
}

// Stat returns inode i's size in bytes (spec.md section 4.6).
func (v *Volume) Stat(i uint32) (int64, error) {
	if err := v.requireMounted(); err != nil {
		return 0, err
	}

	inode, err := v.readValidInode(i)
	if err != nil {
		return 0, err
	}
	return int64(inode.Size), nil
}

// Read copies up to length bytes of inode i's contents, starting at offset,
// into buf, stopping early at an unallocated hole or a device read failure
// (spec.md section 4.6). buf must be at least length bytes long.
func (v *Volume) Read(i uint32, buf []byte, length int, offset int64) (int, error) {
	if err := v.requireMounted(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, ssfserrors.ErrInvalidOffset
	}

	inode, err := v.readValidInode(i)
	if err != nil {
		return 0, err
	}

	available := int64(0)
	if offset < int64(inode.Size) {
		available = int64(inode.Size) - offset
	}
	effectiveLen := length
	if available < int64(effectiveLen) {
		effectiveLen = int(available)
	}
	if effectiveLen <= 0 {
		return 0, nil
	}

	copied := 0
	currentOffset := offset
	for copied < effectiveLen {
		ptr, err := v.resolve(i, &inode, currentOffset, false)
		if err != nil {
			if copied > 0 {
				return copied, nil
			}
			return 0, err
		}
		if ptr == 0 {
			// A hole mid-stream: stop here and return what we already copied
			// (spec.md section 4.6).
			break
		}

		var blockBuf [blockdev.BlockSize]byte
		if err := v.device.ReadBlock(ptr, blockBuf[:]); err != nil {
			if copied > 0 {
				return copied, nil
			}
			return 0, err
		}

		blockOffset := int(currentOffset % blockdev.BlockSize)
		toCopy := minInt(blockdev.BlockSize-blockOffset, effectiveLen-copied)
		copy(buf[copied:copied+toCopy], blockBuf[blockOffset:blockOffset+toCopy])
		copied += toCopy
		currentOffset += int64(toCopy)
	}

	return copied, nil
}

// Write copies up to length bytes from buf into inode i starting at
// offset, sparse-filling any gap between the current size and offset first
// (spec.md section 4.6). Blocks are allocated on demand; a partial block at
// either end of the range is read-modify-written.
func (v *Volume) Write(i uint32, buf []byte, length int, offset int64) (int, error) {
	if err := v.requireMounted(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, ssfserrors.ErrInvalidOffset
	}

	inode, err := v.readValidInode(i)
	if err != nil {
		return 0, err
	}

	if offset > int64(inode.Size) {
		if err := v.sparseFill(i, &inode, offset); err != nil {
			return 0, err
		}
		inode.Size = uint32(offset)
		if err := v.writeRawInode(i, inode); err != nil {
			return 0, err
		}
	}

	written := 0
	currentOffset := offset
	for written < length {
		ptr, err := v.resolve(i, &inode, currentOffset, true)
		if err != nil {
			return v.finishPartialWrite(i, &inode, currentOffset, written, err)
		}

		blockOffset := int(currentOffset % blockdev.BlockSize)
		toWrite := minInt(blockdev.BlockSize-blockOffset, length-written)

		var blockBuf [blockdev.BlockSize]byte
		if blockOffset != 0 || toWrite != blockdev.BlockSize {
			if err := v.device.ReadBlock(ptr, blockBuf[:]); err != nil {
				return v.finishPartialWrite(i, &inode, currentOffset, written, err)
			}
		}
		copy(blockBuf[blockOffset:blockOffset+toWrite], buf[written:written+toWrite])

		if err := v.device.WriteBlock(ptr, blockBuf[:]); err != nil {
			return v.finishPartialWrite(i, &inode, currentOffset, written, err)
		}

		written += toWrite
		currentOffset += int64(toWrite)
	}

	if currentOffset > int64(inode.Size) {
		inode.Size = uint32(currentOffset)
		if err := v.writeRawInode(i, inode); err != nil {
			return written, err
		}
	}

	return written, nil
}

// finishPartialWrite implements spec.md section 4.6's mid-stream failure
// policy: if any bytes were already written, persist the inode's size
// (growing it to whatever offset was reached) and return the partial count
// with no error; otherwise surface the error.
func (v *Volume) finishPartialWrite(i uint32, inode *ondisk.RawInode, currentOffset int64, written int, failure error) (int, error) {
	if written == 0 {
		return 0, failure
	}

	if currentOffset > int64(inode.Size) {
		inode.Size = uint32(currentOffset)
		v.writeRawInode(i, *inode)
	}
	return written, nil
}

// sparseFill ensures every block spanning [inode.Size, target) is
// allocated, relying on allocateZeroedBlock's whole-block zero-fill to
// satisfy the hole semantics (spec.md section 4.6 and section 9's note on
// preserving that behavior). On failure partway through, the inode's size
// is advanced to the last fully-ensured block boundary and persisted so the
// next mount's reconstruction finds every block actually allocated.
func (v *Volume) sparseFill(i uint32, inode *ondisk.RawInode, target int64) error {
	size := int64(inode.Size)
	startBlock := size / blockdev.BlockSize
	endBlock := (target - 1) / blockdev.BlockSize

	for lb := startBlock; lb <= endBlock; lb++ {
		if _, err := v.resolve(i, inode, lb*blockdev.BlockSize, true); err != nil {
			reached := lb * blockdev.BlockSize
			if reached > size {
				inode.Size = uint32(reached)
				v.writeRawInode(i, *inode)
			}
			return err
		}
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
