package record

import (
	"errors"
	"fmt"
)

// ValidationError reports a constraint violation for one candidate record.
// ExistingID carries the id of the record already holding a unique key when
// the violation is a duplicate, and is zero otherwise (including duplicates
// of a sibling candidate in the same batch, which has no id yet).
type ValidationError struct {
	Kind       Kind
	Message    string
	ExistingID int64
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(kind Kind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Duplicatef builds a duplicate-key ValidationError carrying the id of the
// record that already holds the key.
func Duplicatef(kind Kind, existing int64, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...), ExistingID: existing}
}

// NotFoundError reports a reference to a record that does not exist, by id
// or, for named lookups, by name.
type NotFoundError struct {
	Kind Kind
	ID   int64
	Name string
}

// Error implements error.
func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// NotFound builds a NotFoundError for an id reference.
func NotFound(kind Kind, id int64) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// NotFoundName builds a NotFoundError for a named lookup.
func NotFoundName(kind Kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the backend cause.
func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError for op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// LockContentionError reports a failed cursor claim. The caller decides
// whether to retry; the engine never does.
type LockContentionError struct {
	Owner string
	Err   error
}

// Error implements error.
func (e *LockContentionError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("cursor claim by %s lost to contention: %v", e.Owner, e.Err)
	}
	return fmt.Sprintf("cursor claim lost to contention: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *LockContentionError) Unwrap() error { return e.Err }

// ErrorLog is the ordered log of per-candidate failures collected by
// non-strict checks. Entries are ValidationError or NotFoundError values.
type ErrorLog []error

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsLockContention reports whether err is (or wraps) a LockContentionError.
func IsLockContention(err error) bool {
	var lc *LockContentionError
	return errors.As(err, &lc)
}
