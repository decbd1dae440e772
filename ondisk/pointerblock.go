package ondisk

import "encoding/binary"

// PointersPerBlock is how many 32-bit block pointers fit in one data block
// used as an indirect or double-indirect block (1024 / 4), per spec.md
// section 6.
const PointersPerBlock = BlockSize / 4

// DecodePointerBlock parses a raw data block as an array of PointersPerBlock
// little-endian u32 pointers.
func DecodePointerBlock(data []byte) [PointersPerBlock]uint32 {
	var out [PointersPerBlock]uint32
	for i := 0; i < PointersPerBlock; i++ {
		out[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return out
}

// EncodePointerBlock renders an array of pointers as a raw BlockSize-byte
// block.
func EncodePointerBlock(ptrs [PointersPerBlock]uint32) [BlockSize]byte {
	var out [BlockSize]byte
	for i, p := range ptrs {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], p)
	}
	return out
}
