// Package ondisk implements the bit-exact codecs for SSFS's two fixed-size
// on-disk records: the superblock (block 0) and the inode (32 bytes each,
// packed 32 to a block). Adapted from the teacher's
// drivers/unixv1.RawInode/InodeToRawInode, generalized from UNIX v1's
// flags+8-direct-block layout to SSFS's valid+size+4-direct+indirect+
// double-indirect layout (spec.md section 3).
package ondisk

import (
	"bytes"
	"encoding/binary"

	ssfserrors "github.com/dargueta/ssfs/errors"
)

// InodeSize is the on-disk size of one inode record, in bytes (spec.md
// section 3).
const InodeSize = 32

// InodesPerBlock is how many packed inode records fit in one BlockSize-byte
// block (1024 / 32).
const InodesPerBlock = 32

// NumDirectBlocks is the number of direct block pointers stored inline in
// an inode.
const NumDirectBlocks = 4

// RawInode is the exact 32-byte on-disk inode layout:
//
//	[0]      valid (0 = free, 1 = allocated)
//	[1..5)   size, u32 LE
//	[5..21)  direct_blocks[4], u32 LE each
//	[21..25) indirect_block, u32 LE
//	[25..29) double_indirect_block, u32 LE
//	[29..32) padding, always zero on write
type RawInode struct {
	Valid               uint8
	Size                uint32
	DirectBlocks        [NumDirectBlocks]uint32
	IndirectBlock       uint32
	DoubleIndirectBlock uint32
	_                   [3]byte
}

// IsValid reports whether the inode is allocated. Per spec.md section 4.3,
// any value other than 0 or 1 is tolerated as "free" on read.
func (r *RawInode) IsValid() bool {
	return r.Valid == 1
}

// Encode writes the inode's bit-exact 32-byte representation. The padding
// bytes are always zero, satisfying invariant I5 for the structural bytes.
func (r *RawInode) Encode() [InodeSize]byte {
	var out [InodeSize]byte
	buf := bytes.NewBuffer(out[:0])

	valid := r.Valid
	if valid > 1 {
		valid = 0 // never produce an out-of-range valid byte (section 4.3)
	}

	buf.WriteByte(valid)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], r.Size)
	buf.Write(tmp[:])
	for _, b := range r.DirectBlocks {
		binary.LittleEndian.PutUint32(tmp[:], b)
		buf.Write(tmp[:])
	}
	binary.LittleEndian.PutUint32(tmp[:], r.IndirectBlock)
	buf.Write(tmp[:])
	binary.LittleEndian.PutUint32(tmp[:], r.DoubleIndirectBlock)
	buf.Write(tmp[:])
	buf.Write(make([]byte, 3))

	copy(out[:], buf.Bytes())
	return out
}

// DecodeInode parses a 32-byte slice into a RawInode. `valid` values outside
// {0,1} are normalized to 0 (free) per spec.md section 4.3.
func DecodeInode(data []byte) (RawInode, error) {
	if len(data) != InodeSize {
		return RawInode{}, ssfserrors.ErrCorruptDisk.WithMessage("inode record has wrong length")
	}

	var r RawInode
	r.Valid = data[0]
	if r.Valid > 1 {
		r.Valid = 0
	}
	r.Size = binary.LittleEndian.Uint32(data[1:5])
	for i := 0; i < NumDirectBlocks; i++ {
		off := 5 + i*4
		r.DirectBlocks[i] = binary.LittleEndian.Uint32(data[off : off+4])
	}
	r.IndirectBlock = binary.LittleEndian.Uint32(data[21:25])
	r.DoubleIndirectBlock = binary.LittleEndian.Uint32(data[25:29])
	return r, nil
}

// InodeLocation returns the block number (relative to the start of the
// inode table, i.e. add 1 for the absolute block) and byte offset within
// that block of inode number i, per spec.md section 3's packing rule:
// "Inode i lives in block 1 + i/32 at byte offset (i%32)*32".
func InodeLocation(i uint32) (blockInTable uint32, byteOffset uint32) {
	return i / InodesPerBlock, (i % InodesPerBlock) * InodeSize
}
