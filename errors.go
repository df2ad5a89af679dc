package pictdb

import (
	"errors"
	"fmt"
)

// ErrKind is the stable, numeric, user-visible error taxonomy from the
// original pictDB's enum error_codes. Its numeric value is used directly as
// a CLI exit code and as the HTTP "?error=" query value, so the ordering
// below must never change.
type ErrKind uint8

const (
	ErrNone ErrKind = iota
	ErrIO
	ErrOutOfMemory
	ErrNotEnoughArguments
	ErrInvalidFilename
	ErrInvalidCommand
	ErrInvalidArgument
	ErrMaxFiles
	ErrResolutions
	ErrInvalidPicID
	ErrFullDatabase
	ErrFileNotFound
	ErrDuplicateID
	ErrVips
	ErrBind
	ErrInvalidParam
)

var errKindMessages = [...]string{
	ErrNone:               "no error",
	ErrIO:                 "I/O error",
	ErrOutOfMemory:        "out of memory",
	ErrNotEnoughArguments: "not enough arguments",
	ErrInvalidFilename:    "invalid filename",
	ErrInvalidCommand:     "invalid command",
	ErrInvalidArgument:    "invalid argument",
	ErrMaxFiles:           "invalid max_files",
	ErrResolutions:        "invalid resolution(s)",
	ErrInvalidPicID:       "invalid picture id",
	ErrFullDatabase:       "full database",
	ErrFileNotFound:       "file not found",
	ErrDuplicateID:        "duplicate id",
	ErrVips:               "image engine error",
	ErrBind:               "cannot bind HTTP listener",
	ErrInvalidParam:       "invalid HTTP parameter",
}

// String renders the stable, human-readable message for kind.
func (k ErrKind) String() string {
	if int(k) < len(errKindMessages) {
		return errKindMessages[k]
	}
	return fmt.Sprintf("ErrKind(%d)", uint8(k))
}

// Error wraps an ErrKind with operation context. Its Code matches the
// original implementation's "exit code equals the error number" contract.
type Error struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pictdb: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("pictdb: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the numeric error kind, suitable as a CLI exit code or an
// HTTP "?error=" value.
func (e *Error) Code() int { return int(e.Kind) }

func newErr(op string, kind ErrKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewArgError reports a command-line argument problem as ErrNotEnoughArguments,
// the kind the original CLI returns for a malformed invocation.
func NewArgError(op, msg string) *Error {
	return newErr(op, ErrNotEnoughArguments, errors.New(msg))
}

// KindOf extracts the ErrKind carried by err, or ErrNone if err is nil and
// ErrIO if err does not wrap a *Error (an unexpected, unclassified failure).
func KindOf(err error) ErrKind {
	if err == nil {
		return ErrNone
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrIO
}
