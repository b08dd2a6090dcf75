package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a storage failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnection: the store could not be reached or rejected the login.
	KindConnection
	// KindSchema: the database or table could not be created at startup.
	KindSchema
	// KindValidation: a required field is missing. Detected before any
	// statement is sent.
	KindValidation
	// KindDuplicateEmail: the email unique constraint rejected the write.
	KindDuplicateEmail
	// KindNotFound: no row with the requested id.
	KindNotFound
	// KindWrite: any other failure of an insert, update or delete.
	KindWrite
	// KindQuery: any other failure of a read.
	KindQuery
	// KindTimeout: the operation's deadline passed.
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindConnection:     "connection",
	KindSchema:         "schema",
	KindValidation:     "validation",
	KindDuplicateEmail: "duplicate email",
	KindNotFound:       "not found",
	KindWrite:          "write",
	KindQuery:          "query",
	KindTimeout:        "timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the only error type that crosses the storage boundary.
//
// Op names the repository operation ("CreateStudent"), Fields lists the
// offending input fields for validation and duplicate errors, and Err keeps
// the underlying cause for logging.
type Error struct {
	Kind   Kind
	Op     string
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so
// errors.Is(err, storage.ErrDuplicateEmail) works on wrapped errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConnection     = &Error{Kind: KindConnection}
	ErrSchema         = &Error{Kind: KindSchema}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrDuplicateEmail = &Error{Kind: KindDuplicateEmail}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrWrite          = &Error{Kind: KindWrite}
	ErrQuery          = &Error{Kind: KindQuery}
	ErrTimeout        = &Error{Kind: KindTimeout}
)

// KindOf returns the Kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldsOf returns the offending fields carried by err, if any.
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
