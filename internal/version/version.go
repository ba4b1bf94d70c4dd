// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides a single location to house the version information
// for the utilities provided in this repository.
package version

import "strings"

// Version is the application version per the semantic versioning 2.0.0 rules
// (https://semver.org/).
//
// It is defined as a variable so it can be overridden during the build
// process with:
// '-ldflags "-X github.com/zecnode/zecd/internal/version.Version=fullsemver"'
// if needed.
var Version = "0.1.0-pre"

// String returns the application version.  The short commit id of the build is
// appended as build metadata when the version does not carry any and the
// binary was built from a repository.
func String() string {
	if strings.Contains(Version, "+") {
		return Version
	}
	if commit := vcsCommitID(); commit != "" {
		return Version + "+" + commit
	}
	return Version
}
