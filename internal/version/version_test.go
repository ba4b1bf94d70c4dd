// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

import (
	"strings"
	"testing"
)

// TestString ensures the version string always starts with the version and
// keeps build metadata that was set explicitly.
func TestString(t *testing.T) {
	defer func(orig string) { Version = orig }(Version)

	if got := String(); !strings.HasPrefix(got, Version) {
		t.Fatalf("version %q does not start with %q", got, Version)
	}

	Version = "1.2.3+release.local"
	if got := String(); got != Version {
		t.Fatalf("got version %q, want %q", got, Version)
	}
}
