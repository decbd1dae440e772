package volume

import (
	"github.com/dargueta/ssfs/blockdev"
	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/dargueta/ssfs/ondisk"
)

// Block-pointer tree geometry (spec.md section 3).
const (
	directCount              = ondisk.NumDirectBlocks
	pointersPerBlock         = ondisk.PointersPerBlock
	maxIndirectLogicalBlock  = directCount + pointersPerBlock
	maxDoubleIndirectLogical = maxIndirectLogicalBlock + pointersPerBlock*pointersPerBlock
)

// resolve maps a logical byte offset within inode's file to a physical
// block number, optionally allocating (and zero-filling) blocks along the
// way, per spec.md section 4.5. inode is both read and, when allocate is
// true and new pointers are created, mutated and persisted in place.
func (v *Volume) resolve(inodeIndex uint32, inode *ondisk.RawInode, fileOffset int64, allocate bool) (uint32, error) {
	if fileOffset < 0 {
		return 0, ssfserrors.ErrInvalidOffset
	}

	logicalBlock := uint64(fileOffset) / blockdev.BlockSize
	if logicalBlock >= uint64(maxDoubleIndirectLogical) {
		return 0, ssfserrors.ErrInvalidOffset
	}

	switch {
	case logicalBlock < directCount:
		return v.resolveDirect(inodeIndex, inode, uint32(logicalBlock), allocate)
	case logicalBlock < uint64(maxIndirectLogicalBlock):
		return v.resolveIndirect(inodeIndex, inode, uint32(logicalBlock)-directCount, allocate)
	default:
		return v.resolveDoubleIndirect(inodeIndex, inode, uint32(logicalBlock)-maxIndirectLogicalBlock, allocate)
	}
}

// allocateZeroedBlock finds the lowest-numbered free data block, marks it
// used, and zero-fills it on disk. On a write failure the block is
// returned to the free map before the error is surfaced (spec.md section
// 4.5).
func (v *Volume) allocateZeroedBlock() (uint32, error) {
	b, err := v.free.FindFirstFreeFrom(v.firstDataBlock())
	if err != nil {
		return 0, err
	}
	if err := v.free.MarkUsed(b); err != nil {
		return 0, err
	}

	var zero [blockdev.BlockSize]byte
	if err := v.device.WriteBlock(b, zero[:]); err != nil {
		v.free.MarkFree(b)
		return 0, err
	}
	return b, nil
}

func (v *Volume) readPointerBlock(b uint32) ([pointersPerBlock]uint32, error) {
	var buf [blockdev.BlockSize]byte
	if err := v.device.ReadBlock(b, buf[:]); err != nil {
		return [pointersPerBlock]uint32{}, err
	}
	return ondisk.DecodePointerBlock(buf[:]), nil
}

func (v *Volume) writePointerBlock(b uint32, ptrs [pointersPerBlock]uint32) error {
	encoded := ondisk.EncodePointerBlock(ptrs)
	return v.device.WriteBlock(b, encoded[:])
}

func (v *Volume) resolveDirect(inodeIndex uint32, inode *ondisk.RawInode, idx uint32, allocate bool) (uint32, error) {
	ptr := inode.DirectBlocks[idx]
	if ptr != 0 || !allocate {
		return ptr, nil
	}

	newBlock, err := v.allocateZeroedBlock()
	if err != nil {
		return 0, err
	}

	inode.DirectBlocks[idx] = newBlock
	if err := v.writeRawInode(inodeIndex, *inode); err != nil {
		inode.DirectBlocks[idx] = 0
		v.free.MarkFree(newBlock)
		return 0, err
	}
	return newBlock, nil
}

func (v *Volume) resolveIndirect(inodeIndex uint32, inode *ondisk.RawInode, idx uint32, allocate bool) (uint32, error) {
	indirectBlock := inode.IndirectBlock
	if indirectBlock == 0 {
		if !allocate {
			return 0, nil
		}

		newIndirect, err := v.allocateZeroedBlock()
		if err != nil {
			return 0, err
		}
		inode.IndirectBlock = newIndirect
		if err := v.writeRawInode(inodeIndex, *inode); err != nil {
			inode.IndirectBlock = 0
			v.free.MarkFree(newIndirect)
			return 0, err
		}
		indirectBlock = newIndirect
	}

	ptrs, err := v.readPointerBlock(indirectBlock)
	if err != nil {
		return 0, err
	}

	ptr := ptrs[idx]
	if ptr != 0 || !allocate {
		return ptr, nil
	}

	newBlock, err := v.allocateZeroedBlock()
	if err != nil {
		return 0, err
	}
	ptrs[idx] = newBlock
	if err := v.writePointerBlock(indirectBlock, ptrs); err != nil {
		v.free.MarkFree(newBlock)
		return 0, err
	}
	return newBlock, nil
}

func (v *Volume) resolveDoubleIndirect(inodeIndex uint32, inode *ondisk.RawInode, idx uint32, allocate bool) (uint32, error) {
	outerIdx := idx / pointersPerBlock
	innerIdx := idx % pointersPerBlock

	doubleBlock := inode.DoubleIndirectBlock
	if doubleBlock == 0 {
		if !allocate {
			return 0, nil
		}

		newDouble, err := v.allocateZeroedBlock()
		if err != nil {
			return 0, err
		}
		inode.DoubleIndirectBlock = newDouble
		if err := v.writeRawInode(inodeIndex, *inode); err != nil {
			inode.DoubleIndirectBlock = 0
			v.free.MarkFree(newDouble)
			return 0, err
		}
		doubleBlock = newDouble
	}

	outerPtrs, err := v.readPointerBlock(doubleBlock)
	if err != nil {
		return 0, err
	}

	indirectBlock := outerPtrs[outerIdx]
	if indirectBlock == 0 {
		if !allocate {
			return 0, nil
		}

		newIndirect, err := v.allocateZeroedBlock()
		if err != nil {
			return 0, err
		}
		outerPtrs[outerIdx] = newIndirect
		if err := v.writePointerBlock(doubleBlock, outerPtrs); err != nil {
			v.free.MarkFree(newIndirect)
			return 0, err
		}
		indirectBlock = newIndirect
	}

	innerPtrs, err := v.readPointerBlock(indirectBlock)
	if err != nil {
		return 0, err
	}

	ptr := innerPtrs[innerIdx]
	if ptr != 0 || !allocate {
		return ptr, nil
	}

	newBlock, err := v.allocateZeroedBlock()
	if err != nil {
		return 0, err
	}
	innerPtrs[innerIdx] = newBlock
	if err := v.writePointerBlock(indirectBlock, innerPtrs); err != nil {
		v.free.MarkFree(newBlock)
		return 0, err
	}
	return newBlock, nil
}
