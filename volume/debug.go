package volume

import "fmt"

// DebugInode renders inode i's raw pointer tree (the supplemented
// `ssfs debug <inode>` command, see SPEC_FULL.md's "SUPPLEMENTED
// FEATURES"). It's read-only and built on the same
// readValidInode/readPointerBlock primitives the real file operations use.
func (v *Volume) DebugInode(i uint32) (string, error) {
	if err := v.requireMounted(); err != nil {
		return "", err
	}

	inode, err := v.readValidInode(i)
	if err != nil {
		return "", err
	}

	out := fmt.Sprintf("inode %d: size=%d direct=%v indirect=%d double_indirect=%d",
		i, inode.Size, inode.DirectBlocks, inode.IndirectBlock, inode.DoubleIndirectBlock)

	if inode.IndirectBlock != 0 {
		ptrs, err := v.readPointerBlock(inode.IndirectBlock)
		if err != nil {
			return "", err
		}
		out += fmt.Sprintf("\n  indirect block %d -> %v", inode.IndirectBlock, nonZero(ptrs[:]))
	}

	if inode.DoubleIndirectBlock != 0 {
		outerPtrs, err := v.readPointerBlock(inode.DoubleIndirectBlock)
		if err != nil {
			return "", err
		}
		for _, indirectPtr := range outerPtrs {
			if indirectPtr == 0 {
				continue
			}
			innerPtrs, err := v.readPointerBlock(indirectPtr)
			if err != nil {
				return "", err
			}
			out += fmt.Sprintf("\n  double-indirect -> indirect block %d -> %v", indirectPtr, nonZero(innerPtrs[:]))
		}
	}

	return out, nil
}

func nonZero(ptrs []uint32) []uint32 {
	out := make([]uint32, 0, len(ptrs))
	for _, p := range ptrs {
		if p != 0 {
			out = append(out, p)
		}
	}
	return out
}
