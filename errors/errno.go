// Package errors defines SSFS's closed error taxonomy (spec.md section 7).
//
// Unlike a general-purpose POSIX driver, SSFS never needs the full errno
// table: every failure a caller can observe maps onto one of a handful of
// named conditions, plus a pass-through wrapper for whatever the block
// device reports. Errors are modeled as a string-backed const type so they
// can be compared with `==` or `errors.Is`, following the same shape the
// rest of this codebase uses for domain errors.
package errors

import (
	"fmt"
)

// DiskoError is a named SSFS failure condition. The string value is the
// default human-readable message; callers needing more context should use
// WithMessage or WrapError rather than formatting their own string.
type DiskoError string

// Code identifies the integer error code surfaced by the CLI (spec.md
// section 7, "the CLI prints a command-specific line including the integer
// error code"). These values are SSFS's own and are not POSIX errno codes.
type Code int

const (
	CodeOK Code = 0

	// CodeDiskAlreadyMounted: mount() called while a volume is already mounted.
	CodeDiskAlreadyMounted Code = -1
	// CodeDiskNotMounted: an operation requires an active mount but none exists.
	CodeDiskNotMounted Code = -2
	// CodeCorruptDisk: bad magic, block_size != 1024, or a superblock block
	// count that differs from the device's, found while mounting.
	CodeCorruptDisk Code = -3
	// CodeOutOfSpace: no free data block, or the free map/name buffer could
	// not be allocated.
	CodeOutOfSpace Code = -4
	// CodeOutOfInodes: every inode slot is valid; create() has nowhere to go.
	CodeOutOfInodes Code = -5
	// CodeInvalidInode: inode number out of range, or slot is not valid.
	CodeInvalidInode Code = -6
	// CodeInvalidOffset: negative offset, or offset maps past the highest
	// addressable logical block (L >= 65796).
	CodeInvalidOffset Code = -7
	// CodeIOFailed: the block device port returned an error SSFS did not
	// originate; the underlying error is preserved via Unwrap.
	CodeIOFailed Code = -8
)

const ErrDiskAlreadyMounted = DiskoError("disk already mounted")
const ErrDiskNotMounted = DiskoError("disk not mounted")
const ErrCorruptDisk = DiskoError("corrupt disk")
const ErrOutOfSpace = DiskoError("out of space")
const ErrOutOfInodes = DiskoError("out of inodes")
const ErrInvalidInode = DiskoError("invalid inode")
const ErrInvalidOffset = DiskoError("invalid offset")
const ErrIOFailed = DiskoError("device I/O failed")

var codesByError = map[DiskoError]Code{
	ErrDiskAlreadyMounted: CodeDiskAlreadyMounted,
	ErrDiskNotMounted:     CodeDiskNotMounted,
	ErrCorruptDisk:        CodeCorruptDisk,
	ErrOutOfSpace:         CodeOutOfSpace,
	ErrOutOfInodes:        CodeOutOfInodes,
	ErrInvalidInode:       CodeInvalidInode,
	ErrInvalidOffset:      CodeInvalidOffset,
	ErrIOFailed:           CodeIOFailed,
}

// Error implements the `error` interface.
func (e DiskoError) Error() string {
	return string(e)
}

// Code returns the integer code this error kind reports to the CLI.
// Unrecognized DiskoError values (there shouldn't be any outside this
// package) report CodeIOFailed.
func (e DiskoError) Code() Code {
	if code, ok := codesByError[e]; ok {
		return code
	}
	return CodeIOFailed
}

// WithMessage attaches additional context to a DiskoError without losing
// its identity: `errors.Is(result, ErrInvalidOffset)` still holds.
func (e DiskoError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
		kind:          e,
	}
}

// WrapError wraps an underlying error (typically from the block device
// port) while keeping e's identity recoverable via errors.Is/errors.As.
func (e DiskoError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
		kind:          e,
	}
}

// CodeOf extracts the CLI-facing integer code from any error produced by
// this package, or CodeIOFailed for anything else (an unrecognized error
// is necessarily a pass-through device failure under spec.md's taxonomy).
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}

	var de DiskoError
	switch v := err.(type) {
	case DiskoError:
		de = v
	case customDriverError:
		if v.kind != "" {
			de = v.kind
		} else if inner, ok := v.originalError.(DiskoError); ok {
			de = inner
		} else {
			return CodeIOFailed
		}
	default:
		return CodeIOFailed
	}
	return de.Code()
}
