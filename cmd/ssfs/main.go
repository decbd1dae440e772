// Command ssfs is the command-line front end for SSFS volumes (spec.md
// section 6). It is an external collaborator of the core package: the
// block-device and CLI layers are explicitly out of scope for the tested
// properties in spec.md section 8, so this file is free to make its own
// session-management choices on top of volume.Volume.
//
// A single ssfs process normally lives for one command. To honor the
// "mount <img>" / "unmount" / "create" (no path) command grammar from
// spec.md section 6 across that many short-lived processes, `mount`
// records the active image path in a small state file in the current
// directory; every other data command reads it, opens its own Mount/
// Unmount cycle around the one operation it performs, and reports the
// result. This mirrors the disk-utility convention of a "current context"
// file (e.g. kubectl's kubeconfig "current-context") rather than requiring
// a long-running daemon.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/ssfs/blockdev"
	"github.com/dargueta/ssfs/disks"
	ssfserrors "github.com/dargueta/ssfs/errors"
	"github.com/dargueta/ssfs/volume"
)

// activeImageStateFile names the file, in the current directory, that
// records which image `create`/`delete`/`stat`/`read`/`write`/`debug`/
// `info` should operate on.
const activeImageStateFile = ".ssfs-active-image"

// defaultVolumeBlocks is used when `format` is given no --preset/--blocks,
// matching a plain "format <img> <inodes>" invocation with no further
// detail about the backing file's size. It was not specified upstream (the
// block device port is out of scope per spec.md section 1), so this is a
// CLI-level default, not a core invariant.
const defaultVolumeBlocks = 4096

func main() {
	app := &cli.App{
		Name:  "ssfs",
		Usage: "format, mount, and operate on a single-volume flat-namespace file store",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "lay out a fresh volume",
				ArgsUsage: "IMAGE INODES",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Usage: "named volume size from the disks package, e.g. floppy-1.44mb"},
					&cli.UintFlag{Name: "blocks", Usage: "total blocks for a brand-new image file"},
				},
				Action: cmdFormat,
			},
			{
				Name:      "mount",
				Usage:     "validate a volume and make it the active image",
				ArgsUsage: "IMAGE",
				Action:    cmdMount,
			},
			{
				Name:   "unmount",
				Usage:  "release the active image",
				Action: cmdUnmount,
			},
			{
				Name:   "create",
				Usage:  "allocate a new empty file",
				Action: cmdCreate,
			},
			{
				Name:      "delete",
				Usage:     "free a file's storage",
				ArgsUsage: "INODE",
				Action:    cmdDelete,
			},
			{
				Name:      "stat",
				Usage:     "print a file's size",
				ArgsUsage: "INODE",
				Action:    cmdStat,
			},
			{
				Name:      "read",
				Usage:     "print bytes from a file",
				ArgsUsage: "INODE OFFSET LEN",
				Action:    cmdRead,
			},
			{
				Name:      "write",
				Usage:     "write ASCII bytes to a file",
				ArgsUsage: "INODE OFFSET DATA",
				Action:    cmdWrite,
			},
			{
				Name:      "debug",
				Usage:     "print an inode's resolved block-pointer tree",
				ArgsUsage: "INODE",
				Action:    cmdDebug,
			},
			{
				Name:   "info",
				Usage:  "print the active volume's geometry and usage",
				Action: cmdInfo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cmdFormat(c *cli.Context) error {
	path := c.Args().Get(0)
	if path == "" {
		return fmt.Errorf("format requires an image path")
	}
	var inodes uint32
	if arg := c.Args().Get(1); arg != "" || c.String("preset") == "" {
		n, err := parseUint32(arg)
		if err != nil {
			return fmt.Errorf("format requires an inode count: %w", err)
		}
		inodes = n
	}

	numBlocks := uint32(c.Uint("blocks"))
	if presetSlug := c.String("preset"); presetSlug != "" {
		preset, err := disks.Lookup(presetSlug)
		if err != nil {
			return err
		}
		numBlocks = preset.NumBlocks
		if c.Uint("blocks") == 0 && inodes == 0 {
			inodes = preset.DefaultInodes
		}
	}
	if numBlocks == 0 {
		numBlocks = defaultVolumeBlocks
	}

	device, err := blockdev.CreateFileDevice(path, numBlocks)
	if err != nil {
		return reportFailure("format", err)
	}
	defer device.Close()

	v := volume.New()
	if err := v.FormatDevice(device, inodes); err != nil {
		return reportFailure("format", err)
	}

	fmt.Printf("formatted %s: %d blocks, room for %d inodes\n", path, numBlocks, inodes)
	return nil
}

func cmdMount(c *cli.Context) error {
	path := c.Args().Get(0)
	if path == "" {
		return fmt.Errorf("mount requires an image path")
	}

	v := volume.New()
	if err := v.Mount(path); err != nil {
		return reportFailure("mount", err)
	}
	if err := v.Unmount(); err != nil {
		return reportFailure("mount", err)
	}

	if err := os.WriteFile(activeImageStateFile, []byte(path), 0o644); err != nil {
		return fmt.Errorf("mount succeeded but could not record the active image: %w", err)
	}
	fmt.Printf("mounted %s\n", path)
	return nil
}

func cmdUnmount(c *cli.Context) error {
	path, err := readActiveImage()
	if err != nil {
		return reportFailure("unmount", ssfserrors.ErrDiskNotMounted)
	}

	v := volume.New()
	if err := v.Mount(path); err != nil {
		return reportFailure("unmount", err)
	}
	if err := v.Unmount(); err != nil {
		return reportFailure("unmount", err)
	}

	os.Remove(activeImageStateFile)
	fmt.Println("unmounted")
	return nil
}

func cmdCreate(c *cli.Context) error {
	return withActiveVolume("create", func(v *volume.Volume) error {
		i, err := v.Create()
		if err != nil {
			return err
		}
		fmt.Printf("created inode %d\n", i)
		return nil
	})
}

func cmdDelete(c *cli.Context) error {
	inode, err := parseUint32(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("delete requires an inode number: %w", err)
	}
	return withActiveVolume("delete", func(v *volume.Volume) error {
		if err := v.Delete(inode); err != nil {
			return err
		}
		fmt.Printf("deleted inode %d\n", inode)
		return nil
	})
}

func cmdStat(c *cli.Context) error {
	inode, err := parseUint32(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("stat requires an inode number: %w", err)
	}
	return withActiveVolume("stat", func(v *volume.Volume) error {
		size, err := v.Stat(inode)
		if err != nil {
			return err
		}
		fmt.Printf("inode %d: %d bytes\n", inode, size)
		return nil
	})
}

func cmdRead(c *cli.Context) error {
	inode, err := parseUint32(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("read requires an inode number: %w", err)
	}
	offset, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("read requires an integer offset: %w", err)
	}
	length, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return fmt.Errorf("read requires an integer length: %w", err)
	}

	return withActiveVolume("read", func(v *volume.Volume) error {
		buf := make([]byte, length)
		n, err := v.Read(inode, buf, length, offset)
		if err != nil {
			return err
		}
		fmt.Printf("read %d bytes from inode %d at offset %d:\n%s\n", n, inode, offset, buf[:n])
		return nil
	})
}

func cmdWrite(c *cli.Context) error {
	inode, err := parseUint32(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("write requires an inode number: %w", err)
	}
	offset, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("write requires an integer offset: %w", err)
	}
	data := []byte(c.Args().Get(2))

	return withActiveVolume("write", func(v *volume.Volume) error {
		n, err := v.Write(inode, data, len(data), offset)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to inode %d at offset %d\n", n, inode, offset)
		return nil
	})
}

func cmdDebug(c *cli.Context) error {
	inode, err := parseUint32(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("debug requires an inode number: %w", err)
	}
	return withActiveVolume("debug", func(v *volume.Volume) error {
		desc, err := v.DebugInode(inode)
		if err != nil {
			return err
		}
		fmt.Println(desc)
		return nil
	})
}

func cmdInfo(c *cli.Context) error {
	return withActiveVolume("info", func(v *volume.Volume) error {
		fmt.Println(v.Describe())
		return nil
	})
}

// withActiveVolume mounts the image recorded by a prior `mount`, runs fn
// against it, and always unmounts afterward, reporting any failure in
// spec.md section 7's "command-specific line including the integer error
// code" form.
func withActiveVolume(command string, fn func(*volume.Volume) error) error {
	path, err := readActiveImage()
	if err != nil {
		return reportFailure(command, ssfserrors.ErrDiskNotMounted)
	}

	v := volume.New()
	if err := v.Mount(path); err != nil {
		return reportFailure(command, err)
	}
	defer v.Unmount()

	if err := fn(v); err != nil {
		return reportFailure(command, err)
	}
	return nil
}

func readActiveImage() (string, error) {
	data, err := os.ReadFile(activeImageStateFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func reportFailure(command string, err error) error {
	fmt.Fprintf(os.Stderr, "%s failed: %s (code %d)\n", command, err.Error(), ssfserrors.CodeOf(err))
	return cli.Exit("", int(-ssfserrors.CodeOf(err)))
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
