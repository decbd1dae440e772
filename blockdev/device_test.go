package blockdev_test

import (
	"testing"

	"github.com/dargueta/ssfs/blockdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDevice_ReadWriteRoundTrip(t *testing.T) {
	dev := blockdev.NewMemoryDevice(4)
	require.EqualValues(t, 4, dev.SectorCount())

	buf := make([]byte, blockdev.BlockSize)
	for i := range buf {
		buf[i] = byte(i)
	}

	require.NoError(t, dev.WriteBlock(2, buf))

	readBack := make([]byte, blockdev.BlockSize)
	require.NoError(t, dev.ReadBlock(2, readBack))
	assert.Equal(t, buf, readBack)

	other := make([]byte, blockdev.BlockSize)
	require.NoError(t, dev.ReadBlock(0, other))
	assert.Equal(t, make([]byte, blockdev.BlockSize), other, "untouched block should be zero")
}

func TestMemoryDevice_OutOfBounds(t *testing.T) {
	dev := blockdev.NewMemoryDevice(2)
	buf := make([]byte, blockdev.BlockSize)
	assert.Error(t, dev.ReadBlock(2, buf))
	assert.Error(t, dev.WriteBlock(5, buf))
}

func TestMemoryDevice_WrongBufferSize(t *testing.T) {
	dev := blockdev.NewMemoryDevice(2)
	assert.Error(t, dev.ReadBlock(0, make([]byte, 10)))
	assert.Error(t, dev.WriteBlock(0, make([]byte, 2000)))
}

func TestWrapMemoryDevice_RejectsMisalignedLength(t *testing.T) {
	_, err := blockdev.WrapMemoryDevice(make([]byte, blockdev.BlockSize+1))
	assert.Error(t, err)
}

func TestFileDevice_CreateOpenRoundTrip(t *testing.T) {
	path := t.TempDir() + "/image.ssfs"

	created, err := blockdev.CreateFileDevice(path, 8)
	require.NoError(t, err)

	buf := make([]byte, blockdev.BlockSize)
	for i := range buf {
		buf[i] = 0xAB
	}
	require.NoError(t, created.WriteBlock(3, buf))
	require.NoError(t, created.Sync())
	require.NoError(t, created.Close())

	reopened, err := blockdev.OpenFileDevice(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.EqualValues(t, 8, reopened.SectorCount())

	readBack := make([]byte, blockdev.BlockSize)
	require.NoError(t, reopened.ReadBlock(3, readBack))
	assert.Equal(t, buf, readBack)
}
