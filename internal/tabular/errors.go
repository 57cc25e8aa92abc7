package tabular

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is. Structured types below
// carry the offending sheet/column/value and unwrap to these.
var (
	ErrNotFound     = errors.New("not found")
	ErrNonUniqueKey = errors.New("non-unique index key")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

// NotFoundError reports a missing sheet or a missing column within a sheet.
type NotFoundError struct {
	Sheet  string
	Column string // empty when the sheet itself is missing
}

func (e *NotFoundError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("column %q does not exist in sheet %q", e.Column, e.Sheet)
	}
	return fmt.Sprintf("sheet %q not found", e.Sheet)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NonUniqueKeyError reports a duplicate index-column value, a data-integrity
// violation in the source sheet.
type NonUniqueKeyError struct {
	Sheet  string
	Column string
	Value  string
	Row    int // 1-based sheet row of the second occurrence
}

func (e *NonUniqueKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in column %q of sheet %q (row %d)",
		e.Value, e.Column, e.Sheet, e.Row)
}

func (e *NonUniqueKeyError) Unwrap() error { return ErrNonUniqueKey }

// AuthorizationError reports that a credential could not open a sheet.
type AuthorizationError struct {
	Sheet      string
	Credential string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("credential %q cannot open sheet %q", e.Credential, e.Sheet)
}

func (e *AuthorizationError) Unwrap() error { return ErrUnauthorized }

// ValidationError reports a malformed cell value.
type ValidationError struct {
	Sheet  string
	Column string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q in column %q of sheet %q: %s",
		e.Value, e.Column, e.Sheet, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
