// Package volume implements SSFS's mounted-volume lifecycle and the file
// operations built on top of it (spec.md sections 4.5-4.7). It is the
// single entry point the CLI talks to.
//
// Adapted from the teacher's drivers/unixv1.UnixV1Driver: where the teacher
// held a path-addressed, directory-aware driver behind file-scope globals,
// Volume is an explicitly-constructed, directory-free value whose lifecycle
// is tied to Mount/Unmount (spec.md section 9's "process-wide mounted
// state" redesign note).
package volume

import (
	"fmt"

	"github.com/dargueta/ssfs/blockdev"
	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/dargueta/ssfs/internal/freemap"
	"github.com/dargueta/ssfs/ondisk"
	"github.com/hashicorp/go-multierror"
)

// Volume is a single mounted SSFS volume: a device handle, the superblock
// it was mounted from, and the free-space map reconstructed at mount time.
// There is never more than one Volume mounted against a given Device at
// once; callers are responsible for not invoking two operations
// concurrently (spec.md section 5).
type Volume struct {
	device  blockdev.Device
	name    string
	sb      ondisk.Superblock
	free    *freemap.FreeMap
	mounted bool
}

// New creates an unmounted Volume. Use Format to initialize a fresh device
// and Mount to activate an already-formatted one.
func New() *Volume {
	return &Volume{}
}

// IsMounted reports whether the volume currently has an active mount.
func (v *Volume) IsMounted() bool {
	return v.mounted
}

// inodeCapacity returns the total number of inode slots the volume's
// superblock describes (spec.md section 3, "Total inode capacity").
func (v *Volume) inodeCapacity() uint32 {
	return v.sb.NumInodeBlocks * ondisk.InodesPerBlock
}

// firstDataBlock is the first block number in the data region (spec.md
// section 3, "Data region").
func (v *Volume) firstDataBlock() uint32 {
	return 1 + v.sb.NumInodeBlocks
}

// Describe renders a one-line summary of the mounted volume's geometry and
// usage, backing the CLI's supplemental `ssfs info` command (see
// SPEC_FULL.md's "SUPPLEMENTED FEATURES").
func (v *Volume) Describe() string {
	if !v.mounted {
		return "not mounted"
	}
	return fmt.Sprintf(
		"%s: %d/%d blocks used, %d/%d inodes used",
		v.name, v.free.CountUsed(), v.free.TotalUnits(),
		v.countUsedInodes(), v.inodeCapacity())
}

func (v *Volume) countUsedInodes() uint32 {
	var n uint32
	capacity := v.inodeCapacity()
	for i := uint32(0); i < capacity; i++ {
		inode, err := v.readRawInode(i)
		if err != nil {
			continue
		}
		if inode.IsValid() {
			n++
		}
	}
	return n
}

// Format lays out a fresh, empty volume on the device at path: a
// superblock, a zeroed inode table sized to hold at least requestedInodes,
// and nothing else -- format() does not mount the volume (spec.md section
// 4.7). It refuses if this Volume value is itself currently mounted,
// matching spec.md's "already mounted" guard without resurrecting the
// teacher's process-wide global (spec.md section 9).
func (v *Volume) Format(path string, requestedInodes uint32) error {
	if v.mounted {
		return ssfserrors.ErrDiskAlreadyMounted
	}

	device, err := blockdev.OpenFileDevice(path)
	if err != nil {
		return err
	}
	defer device.Close()

	return v.FormatDevice(device, requestedInodes)
}

// FormatDevice is the device-level counterpart of Format, for callers (and
// tests) that already hold an open blockdev.Device -- e.g. an in-memory
// one -- rather than a path on disk.
func (v *Volume) FormatDevice(device blockdev.Device, requestedInodes uint32) error {
	if v.mounted {
		return ssfserrors.ErrDiskAlreadyMounted
	}

	if requestedInodes < 1 {
		requestedInodes = 1
	}
	numInodeBlocks := ceilDiv(requestedInodes, ondisk.InodesPerBlock)
	if numInodeBlocks < 1 {
		numInodeBlocks = 1
	}

	numBlocks := device.SectorCount()
	if numInodeBlocks+1 >= numBlocks {
		return ssfserrors.ErrOutOfSpace.WithMessage(
			fmt.Sprintf(
				"%d inode blocks plus the superblock leaves no data blocks on a %d-block device",
				numInodeBlocks, numBlocks))
	}
	return formatDevice(device, numBlocks, numInodeBlocks)
}

func formatDevice(device blockdev.Device, numBlocks, numInodeBlocks uint32) error {
	sb := ondisk.Superblock{
		NumBlocks:      numBlocks,
		NumInodeBlocks: numInodeBlocks,
		BlockSize:      blockdev.BlockSize,
	}
	encodedSB := sb.Encode()
	if err := device.WriteBlock(0, encodedSB[:]); err != nil {
		return err
	}

	var zero [blockdev.BlockSize]byte
	for b := uint32(1); b <= numInodeBlocks; b++ {
		if err := device.WriteBlock(b, zero[:]); err != nil {
			return err
		}
	}

	return device.Sync()
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// Mount activates an already-formatted device for file operations,
// validating the superblock and reconstructing the free-space map by
// walking every inode (spec.md section 4.4 and section 4.7). Any failure
// releases every resource acquired so far.
func (v *Volume) Mount(path string) (err error) {
	if v.mounted {
		return ssfserrors.ErrDiskAlreadyMounted
	}

	device, err := blockdev.OpenFileDevice(path)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			device.Close()
		}
	}()

	return v.mountDevice(device, path)
}

// MountDevice is the device-level counterpart of Mount, used by tests and
// by callers driving an in-memory device directly.
func (v *Volume) MountDevice(device blockdev.Device, name string) (err error) {
	if v.mounted {
		return ssfserrors.ErrDiskAlreadyMounted
	}

	defer func() {
		if err != nil {
			device.Close()
		}
	}()

	return v.mountDevice(device, name)
}

func (v *Volume) mountDevice(device blockdev.Device, name string) error {
	var sbBuf [blockdev.BlockSize]byte
	if err := device.ReadBlock(0, sbBuf[:]); err != nil {
		return err
	}

	sb, err := ondisk.DecodeSuperblock(sbBuf[:])
	if err != nil {
		return err
	}
	if sb.NumBlocks != device.SectorCount() {
		return ssfserrors.ErrCorruptDisk.WithMessage("superblock block count does not match device")
	}

	v.device = device
	v.sb = sb
	v.name = name

	freeMap, err := reconstructFreeMap(v)
	if err != nil {
		v.device = nil
		v.sb = ondisk.Superblock{}
		v.name = ""
		return err
	}

	v.free = freeMap
	v.mounted = true
	return nil
}

// Unmount syncs the device, releases the free-space map, and closes the
// device. Per spec.md section 4.7, a nonzero sync result is returned to the
// caller but does not prevent the remaining resources from being released.
func (v *Volume) Unmount() error {
	if !v.mounted {
		return ssfserrors.ErrDiskNotMounted
	}

	var result *multierror.Error

	syncErr := v.device.Sync()
	if syncErr != nil {
		result = multierror.Append(result, syncErr)
	}

	v.free = nil

	if closeErr := v.device.Close(); closeErr != nil {
		result = multierror.Append(result, closeErr)
	}
	v.device = nil
	v.name = ""
	v.mounted = false

	if result == nil {
		return nil
	}
	if syncErr != nil {
		// spec.md section 4.7: unmount returns sync's result code specifically.
		return syncErr
	}
	return result.ErrorOrNil()
}

func (v *Volume) requireMounted() error {
	if !v.mounted {
		return ssfserrors.ErrDiskNotMounted
	}
	return nil
}
