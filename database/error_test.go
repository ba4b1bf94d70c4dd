// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2020 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"errors"
	"io"
	"testing"
)

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrDbTypeRegistered, "ErrDbTypeRegistered"},
		{ErrDbUnknownType, "ErrDbUnknownType"},
		{ErrDbDoesNotExist, "ErrDbDoesNotExist"},
		{ErrDbExists, "ErrDbExists"},
		{ErrDbNotOpen, "ErrDbNotOpen"},
		{ErrInvalid, "ErrInvalid"},
		{ErrCorruption, "ErrCorruption"},
		{ErrTxClosed, "ErrTxClosed"},
		{ErrTxNotWritable, "ErrTxNotWritable"},
		{ErrBucketNameRequired, "ErrBucketNameRequired"},
		{ErrKeyRequired, "ErrKeyRequired"},
		{ErrIncompatibleValue, "ErrIncompatibleValue"},
		{ErrDriverSpecific, "ErrDriverSpecific"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
		}
	}
}

// TestError tests the error output and unwrapping of the Error type.
func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       Error
		want     string
		wantKind ErrorKind
		wantRaw  error
	}{{
		name:     "description only",
		in:       MakeError(ErrTxClosed, "tx is closed", nil),
		want:     "tx is closed",
		wantKind: ErrTxClosed,
	}, {
		name:     "with raw error",
		in:       MakeError(ErrDriverSpecific, "read failed", io.ErrUnexpectedEOF),
		want:     "read failed: unexpected EOF",
		wantKind: ErrDriverSpecific,
		wantRaw:  io.ErrUnexpectedEOF,
	}}

	for _, test := range tests {
		if got := test.in.Error(); got != test.want {
			t.Errorf("%s: got: %s want: %s", test.name, got, test.want)
		}
		if !errors.Is(test.in, test.wantKind) {
			t.Errorf("%s: error is not %v", test.name, test.wantKind)
		}
		if test.wantRaw != nil && !errors.Is(test.in, test.wantRaw) {
			t.Errorf("%s: error does not wrap %v", test.name, test.wantRaw)
		}
		var kind ErrorKind
		if !errors.As(test.in, &kind) || kind != test.wantKind {
			t.Errorf("%s: unexpected kind %v", test.name, kind)
		}
	}
}
