package ondisk

import (
	"bytes"
	"encoding/binary"

	ssfserrors "github.com/dargueta/ssfs/errors"
)

// BlockSize is the fixed size of a block, matching blockdev.BlockSize. It is
// redeclared here rather than imported to keep this package free of a
// dependency on the device port; ondisk only knows about byte layouts.
const BlockSize = 1024

// MagicSize is the length of the superblock's identifying prefix.
const MagicSize = 16

// Magic is SSFS's 16-byte superblock signature (spec.md section 3 and the
// bit-exact layout in section 6), adopted unchanged from the original
// implementation's FS_MAGIC constant in original_source/file_system/src.
var Magic = [MagicSize]byte{
	0xF0, 0x55, 0x4C, 0x49, 0x45, 0x47, 0x45, 0x49,
	0x4E, 0x46, 0x4F, 0x30, 0x39, 0x34, 0x30, 0x0F,
}

// Superblock is the decoded contents of block 0.
type Superblock struct {
	NumBlocks      uint32
	NumInodeBlocks uint32
	BlockSize      uint32
}

// Encode renders the superblock into the first 1024 bytes of a volume,
// magic followed by the three little-endian u32 fields, zero-padded to
// BlockSize (spec.md section 4.2 and section 6).
func (sb *Superblock) Encode() [BlockSize]byte {
	var out [BlockSize]byte
	copy(out[0:MagicSize], Magic[:])
	binary.LittleEndian.PutUint32(out[MagicSize:MagicSize+4], sb.NumBlocks)
	binary.LittleEndian.PutUint32(out[MagicSize+4:MagicSize+8], sb.NumInodeBlocks)
	binary.LittleEndian.PutUint32(out[MagicSize+8:MagicSize+12], sb.BlockSize)
	return out
}

// DecodeSuperblock parses block 0. It rejects any buffer whose magic prefix
// doesn't match, or whose block_size field isn't 1024, as CorruptDisk
// (spec.md section 4.2).
func DecodeSuperblock(data []byte) (Superblock, error) {
	if len(data) != BlockSize {
		return Superblock{}, ssfserrors.ErrCorruptDisk.WithMessage("superblock has wrong length")
	}
	if !bytes.Equal(data[0:MagicSize], Magic[:]) {
		return Superblock{}, ssfserrors.ErrCorruptDisk.WithMessage("magic mismatch")
	}

	sb := Superblock{
		NumBlocks:      binary.LittleEndian.Uint32(data[MagicSize : MagicSize+4]),
		NumInodeBlocks: binary.LittleEndian.Uint32(data[MagicSize+4 : MagicSize+8]),
		BlockSize:      binary.LittleEndian.Uint32(data[MagicSize+8 : MagicSize+12]),
	}
	if sb.BlockSize != BlockSize {
		return Superblock{}, ssfserrors.ErrCorruptDisk.WithMessage("unexpected block_size")
	}
	return sb, nil
}
