// Copyright (c) 2020 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package progresslog provides periodic logging for block processing.

Tests are included to ensure proper functionality.

## Feature Overview

- Maintains cumulative totals about blocks between each logging interval
  - Total number of blocks
  - Total number of transactions
  - Total number of shielded spends and outputs
  - Total number of JoinSplits
- Logs all cumulative data every 10 seconds
- Immediately logs any outstanding data when forced
*/
package progresslog
