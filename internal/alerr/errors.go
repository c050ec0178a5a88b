// Package alerr provides standardized error handling for schemaver.
// All errors carry a stable, machine-readable code, structured context, and proper wrapping.
package alerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number}.
type Code string

// Error codes organized by category.
const (
	// Declaration errors (E1xxx) - problems with a version's declared schema
	ErrDeclaration Code = "E1001" // Declared schema is malformed or uses an unsupported type

	// Migration errors (E3xxx) - problems while detecting or migrating
	ErrUpdateExecution      Code = "E3001" // A version's update procedure failed
	ErrUnrecognizedDatabase Code = "E3002" // Live database matches no version in the chain
	ErrVerification         Code = "E3003" // Update succeeded but the live schema does not match
	ErrChain                Code = "E3004" // Version chain is cyclic, too deep, or otherwise invalid
	ErrDatabaseNotEmpty     Code = "E3005" // Initialize was asked to run against a populated database

	// SQL errors (E4xxx) - problems with database operations
	ErrSQLExecution   Code = "E4001" // SQL statement failed to execute
	ErrSQLConnection  Code = "E4002" // Database connection failed
	ErrSQLTransaction Code = "E4003" // Transaction operation failed

	// Introspection errors (E6xxx) - problems reading the live schema
	ErrIntrospection       Code = "E6001" // Live schema could not be read
	ErrComparisonAmbiguity Code = "E6002" // Live column type is not known to the comparator
	ErrUnsupportedDialect  Code = "E6003" // Dialect not supported for operation

	// Configuration errors (E7xxx)
	ErrConfig Code = "E7001" // Configuration is missing or malformed
)

// Error is the standard error type for schemaver.
type Error struct {
	code    Code
	message string
	context map[string]any
	cause   error
}

// Error returns the formatted error string.
// Format:
//
//	[E3001] update procedure failed
//	  version: v1
//	  cause: duplicate column name: displayname
func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.code, e.message)

	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %v", k, e.context[k])
		}
	}

	if e.cause != nil {
		fmt.Fprintf(&b, "\n  cause: %v", e.cause)
	}

	return b.String()
}

// Unwrap returns the underlying cause for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.code == t.code
	}
	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// Get returns a single context value.
func (e *Error) Get(key string) (any, bool) {
	v, ok := e.context[key]
	return v, ok
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithTable adds table context to the error.
// Format: "schema.table" or just "table" if schema is empty.
func (e *Error) WithTable(schema, table string) *Error {
	if schema != "" {
		return e.With("table", schema+"."+table)
	}
	return e.With("table", table)
}

// WithColumn adds column context to the error.
func (e *Error) WithColumn(name string) *Error {
	return e.With("column", name)
}

// WithVersion adds schema version context to the error.
func (e *Error) WithVersion(id string) *Error {
	return e.With("version", id)
}

// WithSQL adds SQL statement context to the error.
func (e *Error) WithSQL(sql string) *Error {
	return e.With("sql", sql)
}

// WithHelp adds a help suggestion to the error.
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	return e.With("helps", append(helps, help))
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	e := New(code, msg)
	e.cause = err
	return e
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the outermost error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// Is checks whether any error in the chain carries the specified code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.code == code {
			return true
		}
		err = e.cause
	}
	return false
}

// WrapSQL creates an ErrSQLExecution error carrying the failed statement.
func WrapSQL(err error, op string, sql string) *Error {
	e := Wrap(ErrSQLExecution, err, "failed to "+op)
	if sql != "" {
		e.WithSQL(sql)
	}
	if state := SQLState(err); state != "" {
		e.With("sqlstate", state)
	}
	return e
}
