// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2020 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific database Error.
const (
	// ErrDbTypeRegistered indicates two different database drivers
	// attempt to register with the name database type.
	ErrDbTypeRegistered = ErrorKind("ErrDbTypeRegistered")

	// ErrDbUnknownType indicates there is no driver registered for
	// the specified database type.
	ErrDbUnknownType = ErrorKind("ErrDbUnknownType")

	// ErrDbDoesNotExist indicates open is called for a database that
	// does not exist.
	ErrDbDoesNotExist = ErrorKind("ErrDbDoesNotExist")

	// ErrDbExists indicates create is called for a database that
	// already exists.
	ErrDbExists = ErrorKind("ErrDbExists")

	// ErrDbNotOpen indicates a database instance is accessed after it is
	// closed.
	ErrDbNotOpen = ErrorKind("ErrDbNotOpen")

	// ErrInvalid indicates the specified database is not valid, such as
	// one created for a different network or invalid driver arguments.
	ErrInvalid = ErrorKind("ErrInvalid")

	// ErrCorruption indicates the backend reported corrupted data.
	ErrCorruption = ErrorKind("ErrCorruption")

	// ErrTxClosed indicates an attempt was made to use a transaction that
	// has already been committed or rolled back.
	ErrTxClosed = ErrorKind("ErrTxClosed")

	// ErrTxNotWritable indicates an operation that requires write access to
	// the database was attempted against a read-only transaction.
	ErrTxNotWritable = ErrorKind("ErrTxNotWritable")

	// ErrBucketNameRequired indicates an attempt to create a bucket with a
	// blank name.
	ErrBucketNameRequired = ErrorKind("ErrBucketNameRequired")

	// ErrKeyRequired indicates at attempt to insert a zero-length key.
	ErrKeyRequired = ErrorKind("ErrKeyRequired")

	// ErrIncompatibleValue indicates the value in question is invalid for
	// the specific requested operation.  For example, trying to create a
	// bucket with an existing non-bucket key or storing a value under the
	// name of a nested bucket.
	ErrIncompatibleValue = ErrorKind("ErrIncompatibleValue")

	// ErrDriverSpecific indicates the RawErr field is a driver-specific
	// error.  This provides a mechanism for drivers to plug-in their own
	// custom errors for any situations which aren't already covered by the
	// error kinds provided by this package.
	ErrDriverSpecific = ErrorKind("ErrDriverSpecific")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to database operation.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type Error struct {
	Err         error
	RawErr      error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.RawErr != nil {
		return e.Description + ": " + e.RawErr.Error()
	}
	return e.Description
}

// Unwrap returns the underlying wrapped errors.
func (e Error) Unwrap() []error {
	if e.RawErr != nil {
		return []error{e.Err, e.RawErr}
	}
	return []error{e.Err}
}

// MakeError creates an Error given a set of arguments.  It is exported for
// the drivers.
func MakeError(kind ErrorKind, desc string, rawErr error) Error {
	return Error{Err: kind, Description: desc, RawErr: rawErr}
}
