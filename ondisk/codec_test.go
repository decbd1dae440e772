package ondisk_test

import (
	"testing"

	"github.com/dargueta/ssfs/ondisk"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperblock_EncodeDecodeRoundTrip(t *testing.T) {
	sb := ondisk.Superblock{NumBlocks: 200, NumInodeBlocks: 4, BlockSize: ondisk.BlockSize}
	encoded := sb.Encode()

	assert.Len(t, encoded, ondisk.BlockSize)
	assert.Equal(t, ondisk.Magic[:], encoded[0:16])

	decoded, err := ondisk.DecodeSuperblock(encoded[:])
	require.NoError(t, err)
	assert.Equal(t, sb, decoded)
}

func TestSuperblock_EncodeWritesIntoFixedBuffer(t *testing.T) {
	dest := make([]byte, ondisk.BlockSize)
	writer := bytewriter.New(dest)

	sb := ondisk.Superblock{NumBlocks: 10, NumInodeBlocks: 1, BlockSize: ondisk.BlockSize}
	encoded := sb.Encode()

	n, err := writer.Write(encoded[:])
	require.NoError(t, err)
	assert.Equal(t, ondisk.BlockSize, n)
	assert.Equal(t, encoded[:], dest)
}

func TestDecodeSuperblock_RejectsBadMagic(t *testing.T) {
	data := make([]byte, ondisk.BlockSize)
	copy(data, []byte("not the magic!!!"))

	_, err := ondisk.DecodeSuperblock(data)
	assert.Error(t, err)
}

func TestDecodeSuperblock_RejectsWrongBlockSize(t *testing.T) {
	sb := ondisk.Superblock{NumBlocks: 10, NumInodeBlocks: 1, BlockSize: 512}
	encoded := sb.Encode()

	_, err := ondisk.DecodeSuperblock(encoded[:])
	assert.Error(t, err)
}

func TestRawInode_EncodeDecodeRoundTrip(t *testing.T) {
	raw := ondisk.RawInode{
		Valid:               1,
		Size:                12345,
		DirectBlocks:        [4]uint32{2, 3, 0, 0},
		IndirectBlock:       9,
		DoubleIndirectBlock: 0,
	}
	encoded := raw.Encode()
	assert.Len(t, encoded, ondisk.InodeSize)
	assert.Equal(t, [3]byte{0, 0, 0}, [3]byte{encoded[29], encoded[30], encoded[31]})

	decoded, err := ondisk.DecodeInode(encoded[:])
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestRawInode_InvalidByteNormalizesToFree(t *testing.T) {
	raw := ondisk.RawInode{Valid: 7, Size: 5}
	encoded := raw.Encode()
	assert.EqualValues(t, 0, encoded[0], "Encode must never produce an out-of-range valid byte")

	decoded, err := ondisk.DecodeInode(encoded[:])
	require.NoError(t, err)
	assert.False(t, decoded.IsValid())
}

func TestInodeLocation(t *testing.T) {
	block, offset := ondisk.InodeLocation(0)
	assert.EqualValues(t, 0, block)
	assert.EqualValues(t, 0, offset)

	block, offset = ondisk.InodeLocation(33)
	assert.EqualValues(t, 1, block)
	assert.EqualValues(t, 32, offset)
}
