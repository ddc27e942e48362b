package book

import (
	"errors"
	"fmt"
)

// Outcome errors reported to the transport layer.
var (
	ErrUnsupportedFormat = codedError{code: "UNSUPPORTED_FORMAT", msg: "unsupported book format"}
	ErrCorruptDocument   = codedError{code: "CORRUPT_DOCUMENT", msg: "corrupt document"}
	ErrBookUnavailable   = codedError{code: "BOOK_UNAVAILABLE", msg: "book unavailable"}
	ErrNoActiveBook      = codedError{code: "NO_ACTIVE_BOOK", msg: "no active book"}
	ErrNoActiveSession   = codedError{code: "NO_ACTIVE_SESSION", msg: "no active reading session"}
	ErrAlreadyAtStart    = codedError{code: "ALREADY_AT_START", msg: "already at the start of the book"}
	ErrBookNotFound      = codedError{code: "BOOK_NOT_FOUND", msg: "book not found"}
	ErrPersistence       = codedError{code: "PERSISTENCE_FAILURE", msg: "persistence failure"}
)

type codedError struct {
	code string
	msg  string
}

func (e codedError) Error() string { return e.msg }

// Code returns a stable identifier used by handler summary logs.
func (e codedError) Code() string { return e.code }

// PersistenceError reports a failed registry write. It matches ErrPersistence via errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying storage error.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets callers match any persistence failure with errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Code implements the coder interface used in logs.
func (e *PersistenceError) Code() string { return ErrPersistence.code }

// Persistence wraps err as a PersistenceError unless it is nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// Corrupt wraps a parser error so it matches ErrCorruptDocument.
func Corrupt(format Format, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCorruptDocument, format, err)
}
