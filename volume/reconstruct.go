package volume

import (
	"github.com/dargueta/ssfs/internal/freemap"
	"github.com/dargueta/ssfs/ondisk"
)

// reconstructFreeMap rebuilds the free-space bitmap by walking every valid
// inode's block-pointer tree (spec.md section 4.4). It's run once, at
// mount time, since the bitmap is never persisted (spec.md section 3). Any
// read failure aborts the walk; the caller discards the partial map.
func reconstructFreeMap(v *Volume) (*freemap.FreeMap, error) {
	fm := freemap.New(v.sb.NumBlocks)

	for b := uint32(0); b <= v.sb.NumInodeBlocks; b++ {
		if err := fm.MarkUsed(b); err != nil {
			return nil, err
		}
	}

	capacity := v.inodeCapacity()
	for i := uint32(0); i < capacity; i++ {
		inode, err := v.readRawInode(i)
		if err != nil {
			return nil, err
		}
		if !inode.IsValid() {
			continue
		}
		if err := markInodeTreeUsed(v, fm, inode); err != nil {
			return nil, err
		}
	}

	return fm, nil
}

func markInodeTreeUsed(v *Volume, fm *freemap.FreeMap, inode ondisk.RawInode) error {
	for _, ptr := range inode.DirectBlocks {
		if ptr == 0 {
			continue
		}
		if err := fm.MarkUsed(ptr); err != nil {
			return err
		}
	}

	if inode.IndirectBlock != 0 {
		if err := fm.MarkUsed(inode.IndirectBlock); err != nil {
			return err
		}
		ptrs, err := v.readPointerBlock(inode.IndirectBlock)
		if err != nil {
			return err
		}
		for _, ptr := range ptrs {
			if ptr == 0 {
				continue
			}
			if err := fm.MarkUsed(ptr); err != nil {
				return err
			}
		}
	}

	if inode.DoubleIndirectBlock != 0 {
		if err := fm.MarkUsed(inode.DoubleIndirectBlock); err != nil {
			return err
		}
		outerPtrs, err := v.readPointerBlock(inode.DoubleIndirectBlock)
		if err != nil {
			return err
		}
		for _, indirectPtr := range outerPtrs {
			if indirectPtr == 0 {
				continue
			}
			if err := fm.MarkUsed(indirectPtr); err != nil {
				return err
			}
			innerPtrs, err := v.readPointerBlock(indirectPtr)
			if err != nil {
				return err
			}
			for _, leaf := range innerPtrs {
				if leaf == 0 {
					continue
				}
				if err := fm.MarkUsed(leaf); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
