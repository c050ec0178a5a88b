package schemaver

import "github.com/hlop3z/schemaver/internal/alerr"

// Error is the structured error returned by every operation. Use errors.As
// to read its code and context.
type Error = alerr.Error

// Code identifies a class of failure.
type Code = alerr.Code

// Stable error codes.
const (
	ErrDeclaration          = alerr.ErrDeclaration
	ErrUpdateExecution      = alerr.ErrUpdateExecution
	ErrUnrecognizedDatabase = alerr.ErrUnrecognizedDatabase
	ErrVerification         = alerr.ErrVerification
	ErrChain                = alerr.ErrChain
	ErrDatabaseNotEmpty     = alerr.ErrDatabaseNotEmpty
	ErrSQLExecution         = alerr.ErrSQLExecution
	ErrSQLConnection        = alerr.ErrSQLConnection
	ErrIntrospection        = alerr.ErrIntrospection
	ErrUnsupportedDialect   = alerr.ErrUnsupportedDialect
	ErrConfig               = alerr.ErrConfig
)

// IsUnrecognized reports whether the database matched no version.
func IsUnrecognized(err error) bool {
	return alerr.Is(err, alerr.ErrUnrecognizedDatabase)
}

// IsUpdateFailure reports whether an update procedure failed. The failing
// version is in the "version" context key and the versions applied before
// it in "applied".
func IsUpdateFailure(err error) bool {
	return alerr.Is(err, alerr.ErrUpdateExecution)
}

// IsVerificationFailure reports whether updates succeeded but the database
// still does not match the version they were meant to produce.
func IsVerificationFailure(err error) bool {
	return alerr.Is(err, alerr.ErrVerification)
}

// CodeOf returns the code of err, or "" if err is not a schemaver error.
func CodeOf(err error) Code {
	return alerr.GetErrorCode(err)
}
