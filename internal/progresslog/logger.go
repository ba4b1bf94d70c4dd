// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/zecnode/zecd/wire"
)

// logInterval is the minimum time between two progress messages that are not
// forced.
const logInterval = time.Second * 10

// pickNoun returns the singular or plural form of a noun depending on the
// provided count.
func pickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// Logger provides periodic logging of progress towards some action such as
// importing blocks.
type Logger struct {
	sync.Mutex
	subsystemLogger slog.Logger
	progressAction  string

	// lastLogTime tracks the last time a log statement was shown.
	lastLogTime time.Time

	// These fields accumulate information about blocks between log statements.
	receivedBlocks     uint64
	receivedTxns       uint64
	receivedShielded   uint64
	receivedJoinSplits uint64
}

// New returns a new block progress logger.
func New(progressAction string, logger slog.Logger) *Logger {
	return &Logger{
		lastLogTime:     time.Now(),
		progressAction:  progressAction,
		subsystemLogger: logger,
	}
}

// LogProgress accumulates details for the provided block and periodically
// (every 10 seconds) logs an information message to show progress to the user
// along with duration and totals included.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//
//	{progressAction} {numProcessed} {blocks|block} in the last {timePeriod}
//	({numTxs} {transactions|transaction}, {numShielded} shielded
//	{descriptions|description}, {numJoinSplits} {joinsplits|joinsplit},
//	height {height}, {lastBlockTimeStamp})
func (l *Logger) LogProgress(block *wire.MsgBlock, height int64, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	l.receivedBlocks++
	l.receivedTxns += uint64(len(block.Transactions))
	for _, tx := range block.Transactions {
		l.receivedShielded += uint64(len(tx.ShieldedSpends) +
			len(tx.ShieldedOutputs))
		l.receivedJoinSplits += uint64(len(tx.JoinSplits))
	}
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (%d %s, %d shielded "+
		"%s, %d %s, height %d, %s)", l.progressAction,
		l.receivedBlocks, pickNoun(l.receivedBlocks, "block", "blocks"),
		duration.Seconds(),
		l.receivedTxns, pickNoun(l.receivedTxns, "transaction", "transactions"),
		l.receivedShielded, pickNoun(l.receivedShielded, "description", "descriptions"),
		l.receivedJoinSplits, pickNoun(l.receivedJoinSplits, "joinsplit", "joinsplits"),
		height, block.Header.Timestamp)

	l.receivedBlocks = 0
	l.receivedTxns = 0
	l.receivedShielded = 0
	l.receivedJoinSplits = 0
	l.lastLogTime = now
}

// SetLastLogTime updates the last time data was logged to the provided time.
func (l *Logger) SetLastLogTime(time time.Time) {
	l.Lock()
	l.lastLogTime = time
	l.Unlock()
}
