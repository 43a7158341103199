package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for branch and ledger commands. Match with errors.Is.
var (
	ErrBranchExists   = errors.New("branch already exists")
	ErrBranchNotFound = errors.New("branch not found")
	ErrInvalidName    = errors.New("invalid name")
	ErrVersionMissing = errors.New("version not found")
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConflict indicates a uniqueness rule would be broken.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeInvalid indicates malformed caller input.
	ErrCodeInvalid ErrorCode = "INVALID"

	// ErrCodeStore indicates a persistence fault.
	ErrCodeStore ErrorCode = "STORE"
)

// Error is an engine command failure.
//
// Op names the command ("commit", "merge"), Subject the record it acted on.
// Err is the underlying cause and is reachable through errors.Is/As.
type Error struct {
	Code    ErrorCode
	Op      string
	Subject string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" if
// there is none.
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func opError(code ErrorCode, op, subject string, err error) *Error {
	return &Error{Code: code, Op: op, Subject: subject, Err: err}
}
