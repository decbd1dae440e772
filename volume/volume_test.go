package volume_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/ssfs/blockdev"
	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/dargueta/ssfs/volume"
)

// newFormattedVolume builds a small in-memory device, formats it, and mounts
// it, returning a ready-to-use Volume. numBlocks must leave room for the
// superblock, the inode table, and at least one data block.
func newFormattedVolume(t *testing.T, numBlocks, requestedInodes uint32) *volume.Volume {
	t.Helper()

	device := blockdev.NewMemoryDevice(numBlocks)
	v := volume.New()
	require.NoError(t, v.FormatDevice(device, requestedInodes))
	require.NoError(t, v.MountDevice(device, "test"))
	return v
}

func TestFormatDevice_RejectsDeviceWithNoRoomForData(t *testing.T) {
	device := blockdev.NewMemoryDevice(2)
	v := volume.New()
	err := v.FormatDevice(device, 32)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrOutOfSpace)
}

func TestMountDevice_RejectsBadSuperblock(t *testing.T) {
	device := blockdev.NewMemoryDevice(16)
	v := volume.New()
	err := v.MountDevice(device, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrCorruptDisk)
}

func TestMount_RejectsAlreadyMounted(t *testing.T) {
	v := newFormattedVolume(t, 32, 16)

	other := blockdev.NewMemoryDevice(32)
	v2 := volume.New()
	require.NoError(t, v2.FormatDevice(other, 16))

	err := v.MountDevice(other, "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrDiskAlreadyMounted)
}

func TestUnmount_RejectsWhenNotMounted(t *testing.T) {
	v := volume.New()
	err := v.Unmount()
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrDiskNotMounted)
}

func TestCreate_FirstInodeIsZero(t *testing.T) {
	v := newFormattedVolume(t, 32, 16)

	i, err := v.Create()
	require.NoError(t, err)
	assert.EqualValues(t, 0, i)

	size, err := v.Stat(i)
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestCreate_ExhaustsInodeTable(t *testing.T) {
	v := newFormattedVolume(t, 64, 1) // ceilDiv(1, 32) = 1 inode block -> 32 slots

	for n := 0; n < 32; n++ {
		_, err := v.Create()
		require.NoErrorf(t, err, "create %d should have succeeded", n)
	}

	_, err := v.Create()
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrOutOfInodes)
}

func TestStat_RejectsUnallocatedInode(t *testing.T) {
	v := newFormattedVolume(t, 32, 16)

	_, err := v.Stat(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrInvalidInode)
}

func TestStat_RejectsOutOfRangeInode(t *testing.T) {
	v := newFormattedVolume(t, 32, 16)

	_, err := v.Stat(999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrInvalidInode)
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	v := newFormattedVolume(t, 64, 16)

	i, err := v.Create()
	require.NoError(t, err)

	payload := []byte("hello, ssfs")
	n, err := v.Write(i, payload, len(payload), 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	size, err := v.Stat(i)
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), size)

	buf := make([]byte, len(payload))
	n, err = v.Read(i, buf, len(buf), 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

func TestRead_BeyondEndOfFileReturnsZero(t *testing.T) {
	v := newFormattedVolume(t, 64, 16)

	i, err := v.Create()
	require.NoError(t, err)
	_, err = v.Write(i, []byte("abc"), 3, 0)
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := v.Read(i, buf, len(buf), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRead_ClampsToFileSize(t *testing.T) {
	v := newFormattedVolume(t, 64, 16)

	i, err := v.Create()
	require.NoError(t, err)
	_, err = v.Write(i, []byte("abcdef"), 6, 0)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := v.Read(i, buf, len(buf), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("cdef"), buf[:n])
}

func TestWrite_SparseFillZeroesGap(t *testing.T) {
	v := newFormattedVolume(t, 64, 16)

	i, err := v.Create()
	require.NoError(t, err)

	_, err = v.Write(i, []byte("X"), 1, 2000)
	require.NoError(t, err)

	size, err := v.Stat(i)
	require.NoError(t, err)
	assert.EqualValues(t, 2001, size)

	buf := make([]byte, 2001)
	n, err := v.Read(i, buf, len(buf), 0)
	require.NoError(t, err)
	require.Equal(t, 2001, n)

	for idx := 0; idx < 2000; idx++ {
		require.Equalf(t, byte(0), buf[idx], "byte %d should be zero-filled", idx)
	}
	assert.Equal(t, byte('X'), buf[2000])
}

func TestWrite_SpanningIndirectBlocks(t *testing.T) {
	v := newFormattedVolume(t, 2048, 16)

	i, err := v.Create()
	require.NoError(t, err)

	payload := make([]byte, 8000)
	for idx := range payload {
		payload[idx] = byte(idx % 251)
	}

	n, err := v.Write(i, payload, len(payload), 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = v.Read(i, buf, len(buf), 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

func TestDelete_FreesBlocksForReuse(t *testing.T) {
	v := newFormattedVolume(t, 64, 16)

	i, err := v.Create()
	require.NoError(t, err)
	_, err = v.Write(i, []byte("some data"), 9, 0)
	require.NoError(t, err)

	require.NoError(t, v.Delete(i))

	_, err = v.Stat(i)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrInvalidInode)

	// The freed blocks should be reusable: writing the same amount of data
	// to a fresh inode must not run out of space.
	j, err := v.Create()
	require.NoError(t, err)
	_, err = v.Write(j, []byte("some data"), 9, 0)
	require.NoError(t, err)
}

func TestReadWrite_RejectNegativeOffset(t *testing.T) {
	v := newFormattedVolume(t, 64, 16)
	i, err := v.Create()
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = v.Read(i, buf, 4, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrInvalidOffset)

	_, err = v.Write(i, buf, 4, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ssfserrors.ErrInvalidOffset)
}

func TestMountDevice_ReconstructsFreeMapAcrossRemount(t *testing.T) {
	device := blockdev.NewMemoryDevice(64)
	v := volume.New()
	require.NoError(t, v.FormatDevice(device, 16))
	require.NoError(t, v.MountDevice(device, "test"))

	i, err := v.Create()
	require.NoError(t, err)
	_, err = v.Write(i, []byte("persisted"), 9, 0)
	require.NoError(t, err)
	require.NoError(t, v.Unmount())

	v2 := volume.New()
	require.NoError(t, v2.MountDevice(device, "test"))

	size, err := v2.Stat(i)
	require.NoError(t, err)
	assert.EqualValues(t, 9, size)

	buf := make([]byte, 9)
	n, err := v2.Read(i, buf, len(buf), 0)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, []byte("persisted"), buf)

	// A second file should not be able to reuse blocks still held by the
	// first (invariant I4: free map reflects reality after reconstruction).
	j, err := v2.Create()
	require.NoError(t, err)
	assert.NotEqual(t, i, j)

	_, err = v2.Write(j, []byte("overwrite"), 9, 0)
	require.NoError(t, err)

	n, err = v2.Read(i, buf, len(buf), 0)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, []byte("persisted"), buf)
}
