package errors

import "fmt"

// DriverError is an error carrying a message plus an unwrap chain back to
// the DiskoError (or device error) that caused it.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
}

// -----------------------------------------------------------------------------

type customDriverError struct {
	message       string
	originalError error
	// kind records which DiskoError this came from; it survives originalError
	// being overwritten by a wrapped device error (see DiskoError.WrapError).
	kind DiskoError
}

// Is lets errors.Is match the DiskoError this error was built from, even
// after WrapError has replaced originalError with a device error.
func (e customDriverError) Is(target error) bool {
	return e.kind != "" && target == error(e.kind)
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
		kind:          e.kind,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
		kind:          e.kind,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
