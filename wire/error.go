// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"errors"
	"fmt"
	"io"
)

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrTruncatedInput indicates the input ended before every field of the
	// value being decoded was read.
	ErrTruncatedInput = ErrorKind("ErrTruncatedInput")

	// ErrMalformedField indicates a field was present but its contents
	// violate the encoding.  This includes non-canonical variable length
	// integers, counts or lengths over the allowed maximum, reserved bits
	// that are set, and unconsumed trailing bytes.
	ErrMalformedField = ErrorKind("ErrMalformedField")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// MessageError identifies an error related to encoded values.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the specific
// reason for the error by checking the underlying error.
type MessageError struct {
	Func        string
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e MessageError) Error() string {
	if e.Func == "" {
		return e.Description
	}
	return e.Func + ": " + e.Description
}

// Unwrap returns the underlying wrapped error.
func (e MessageError) Unwrap() error {
	return e.Err
}

// messageError creates a MessageError given a set of arguments.
func messageError(fn string, kind ErrorKind, desc string) MessageError {
	return MessageError{Func: fn, Err: kind, Description: desc}
}

// readError converts an error returned by an underlying reader into a
// MessageError.  End of input in any form is reported as ErrTruncatedInput.
// Errors that are already a MessageError are returned unchanged.
func readError(fn, field string, err error) error {
	var merr MessageError
	if errors.As(err, &merr) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		desc := fmt.Sprintf("input ended while reading %s", field)
		return messageError(fn, ErrTruncatedInput, desc)
	}
	return err
}
