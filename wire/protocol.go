// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// CurrencyNet represents which network a message belongs to.  The value is
// the little endian interpretation of the four magic bytes that start every
// message and every record of a block file.
type CurrencyNet uint32

// Constants used to indicate the message network.  They can also be used to
// seek to the next message when a stream's state is unknown, but this package
// does not provide that functionality since it's generally a better idea to
// simply disconnect clients that are misbehaving over TCP.
const (
	// MainNet represents the main network.
	MainNet CurrencyNet = 0x6427e924

	// RegNet represents the regression test network.
	RegNet CurrencyNet = 0x5f3fe8aa
)

// bnStrings is a map of networks back to their constant names for pretty
// printing.
var bnStrings = map[CurrencyNet]string{
	MainNet: "MainNet",
	RegNet:  "RegNet",
}

// String returns the CurrencyNet in human-readable form.
func (n CurrencyNet) String() string {
	if s, ok := bnStrings[n]; ok {
		return s
	}

	return fmt.Sprintf("Unknown CurrencyNet (%d)", uint32(n))
}
