package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/dargueta/ssfs/errors"
	"github.com/stretchr/testify/assert"
)

func TestDiskoErrorWithMessage(t *testing.T) {
	newErr := errors.ErrInvalidOffset.WithMessage("offset -5")
	assert.Equal(t, "invalid offset: offset -5", newErr.Error())
	assert.ErrorIs(t, newErr, errors.ErrInvalidOffset)
}

func TestDiskoErrorWrapError(t *testing.T) {
	originalErr := stderrors.New("short read")
	newErr := errors.ErrIOFailed.WrapError(originalErr)

	assert.Equal(t, "device I/O failed: short read", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr)
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err      error
		wantCode errors.Code
	}{
		{nil, errors.CodeOK},
		{errors.ErrDiskAlreadyMounted, errors.CodeDiskAlreadyMounted},
		{errors.ErrDiskNotMounted, errors.CodeDiskNotMounted},
		{errors.ErrCorruptDisk, errors.CodeCorruptDisk},
		{errors.ErrOutOfSpace, errors.CodeOutOfSpace},
		{errors.ErrOutOfInodes, errors.CodeOutOfInodes},
		{errors.ErrInvalidInode, errors.CodeInvalidInode},
		{errors.ErrInvalidOffset, errors.CodeInvalidOffset},
		{errors.ErrInvalidOffset.WithMessage("bad"), errors.CodeInvalidOffset},
		{errors.ErrIOFailed.WrapError(stderrors.New("eof")), errors.CodeIOFailed},
		{stderrors.New("plain"), errors.CodeIOFailed},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.wantCode, errors.CodeOf(tc.err))
	}
}
