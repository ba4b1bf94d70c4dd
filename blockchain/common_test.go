// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/zecnode/zecd/blockchain/chaingen"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/database"
	_ "github.com/zecnode/zecd/database/ldb"
	"github.com/zecnode/zecd/wire"
)

// testPeer is the peer every block in the tests is attributed to.
const testPeer = PeerID("testpeer")

// createTestDatabase creates a memory backed database for use in the tests.
// The database is closed when the test finishes.
func createTestDatabase(t testing.TB) database.DB {
	t.Helper()

	db, err := database.Create("leveldb", "", wire.RegNet)
	if err != nil {
		t.Fatalf("error creating db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// chainSetup is used to create a new db and chain instance with the genesis
// block already inserted.
func chainSetup(t testing.TB, params *chaincfg.Params) *BlockChain {
	t.Helper()

	chain, err := New(&Config{
		DB:          createTestDatabase(t),
		ChainParams: params,
	})
	if err != nil {
		t.Fatalf("failed to create chain instance: %v", err)
	}
	return chain
}

// chaingenHarness provides a test harness which encapsulates a test instance, a
// chaingen generator instance, and a block chain instance to provide all of the
// functionality of the aforementioned types as well as several convenience
// functions such as block acceptance and rejection, expected tip checking, and
// expected block index state checking.
//
// The chaingen generator is embedded in the struct so callers can directly
// access its method the same as if they were directly working with the
// underlying generator.
//
// Since chaingen involves creating fully valid and solved blocks, which is
// relatively expensive, only tests which actually require that functionality
// should use this harness.  In many cases, a much faster and preferred
// approach is to directly create the desired block index and chain state.
type chaingenHarness struct {
	*chaingen.Generator

	t     *testing.T
	chain *BlockChain
}

// newChaingenHarnessWithChain creates and returns a new instance of a chaingen
// harness that encapsulates the provided test instance and existing chain.
func newChaingenHarnessWithChain(t *testing.T, chain *BlockChain) *chaingenHarness {
	t.Helper()

	gen, err := chaingen.MakeGenerator(chain.chainParams)
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}
	return &chaingenHarness{
		Generator: &gen,
		t:         t,
		chain:     chain,
	}
}

// newChaingenHarness creates and returns a new instance of a chaingen harness
// that encapsulates the provided test instance along with a chaingen generator
// and block chain instance backed by a memory database.
func newChaingenHarness(t *testing.T, params *chaincfg.Params) *chaingenHarness {
	t.Helper()
	return newChaingenHarnessWithChain(t, chainSetup(t, params))
}

// processBlock submits the named block to the chain.
func (g *chaingenHarness) processBlock(blockName string, flags BehaviorFlags) (*ProcessResult, error) {
	g.t.Helper()

	block := g.BlockByName(blockName)
	return g.chain.ProcessBlock(block.Bytes(), testPeer, flags)
}

// AcceptBlock processes the block associated with the given name in the
// harness generator and expects it to be accepted to the main chain.
func (g *chaingenHarness) AcceptBlock(blockName string) *ProcessResult {
	g.t.Helper()

	block := g.BlockByName(blockName)
	blockHeight := g.BlockHeight(blockName)
	g.t.Logf("Testing block %s (hash %s, height %d)", blockName,
		block.BlockHash(), blockHeight)

	result, err := g.processBlock(blockName, BFNone)
	if err != nil {
		g.t.Fatalf("block %q (hash %s, height %d) should have been "+
			"accepted: %v", blockName, block.BlockHash(), blockHeight, err)
	}

	// Ensure the main chain and orphan flags match the values specified in
	// the test.
	if !result.MainChain {
		g.t.Fatalf("block %q (hash %s, height %d) unexpected main chain "+
			"flag -- got %v, want true", blockName, block.BlockHash(),
			blockHeight, result.MainChain)
	}
	if result.Orphan {
		g.t.Fatalf("block %q (hash %s, height %d) unexpected orphan flag "+
			"-- got %v, want false", blockName, block.BlockHash(),
			blockHeight, result.Orphan)
	}
	return result
}

// AcceptTipBlock processes the current tip block associated with the harness
// generator and expects it to be accepted to the main chain.
func (g *chaingenHarness) AcceptTipBlock() {
	g.t.Helper()

	g.AcceptBlock(g.TipName())
}

// AcceptBlockAsSide processes the block associated with the given name and
// expects it to be accepted without becoming the main chain tip.
func (g *chaingenHarness) AcceptBlockAsSide(blockName string) {
	g.t.Helper()

	result, err := g.processBlock(blockName, BFNone)
	if err != nil {
		g.t.Fatalf("block %q should have been accepted: %v", blockName, err)
	}
	if result.MainChain || result.Orphan {
		g.t.Fatalf("block %q unexpected flags -- got main chain %v, "+
			"orphan %v, want side chain", blockName, result.MainChain,
			result.Orphan)
	}
}

// ExpectOrphan processes the block associated with the given name and expects
// it to be buffered as an orphan.
func (g *chaingenHarness) ExpectOrphan(blockName string) {
	g.t.Helper()

	result, err := g.processBlock(blockName, BFNone)
	if err != nil {
		g.t.Fatalf("block %q should have been buffered: %v", blockName, err)
	}
	if !result.Orphan {
		g.t.Fatalf("block %q was not buffered as an orphan", blockName)
	}
}

// RejectBlock expects the block associated with the given name in the harness
// generator to be rejected with the provided error kind.  It returns the
// rejection for further checks.
func (g *chaingenHarness) RejectBlock(blockName string, kind error) *Rejection {
	g.t.Helper()

	block := g.BlockByName(blockName)
	blockHeight := g.BlockHeight(blockName)
	g.t.Logf("Testing block %s (hash %s, height %d)", blockName,
		block.BlockHash(), blockHeight)

	_, err := g.processBlock(blockName, BFNone)
	if err == nil {
		g.t.Fatalf("block %q (hash %s, height %d) should not have been "+
			"accepted", blockName, block.BlockHash(), blockHeight)
	}

	// Ensure the error matches the value specified in the test instance.
	if !errors.Is(err, kind) {
		g.t.Fatalf("block %q (hash %s, height %d) does not have expected "+
			"reject code -- got %v, want %v", blockName, block.BlockHash(),
			blockHeight, err, kind)
	}
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		g.t.Fatalf("block %q error is not a rejection: %v", blockName, err)
	}
	if rejection.Peer != testPeer || rejection.Hash != block.BlockHash() {
		g.t.Fatalf("block %q rejection does not identify the block: %s",
			blockName, spew.Sdump(rejection))
	}
	return rejection
}

// RejectTipBlock expects the current tip block associated with the harness
// generator to be rejected with the provided error kind.
func (g *chaingenHarness) RejectTipBlock(kind error) *Rejection {
	g.t.Helper()

	return g.RejectBlock(g.TipName(), kind)
}

// AssertTipHeight expects the provided height to be the current tip of the
// active chain.
func (g *chaingenHarness) AssertTipHeight(expected int64) {
	g.t.Helper()

	best := g.chain.BestSnapshot()
	if best.Height != expected {
		g.t.Fatalf("block %s (height %d) is not the expected tip height %d",
			best.Hash, best.Height, expected)
	}
}

// AssertTipBlockHash expects the block associated with the given name to be
// the current tip of the active chain.
func (g *chaingenHarness) AssertTipBlockHash(blockName string) {
	g.t.Helper()

	expected := g.BlockByName(blockName).BlockHash()
	best := g.chain.BestSnapshot()
	if best.Hash != expected {
		g.t.Fatalf("block %s (height %d) is not the expected tip %s (%q)",
			best.Hash, best.Height, expected, blockName)
	}
}

// AssertBlockValidity expects the block associated with the given name to have
// the provided validity state in the block index.
func (g *chaingenHarness) AssertBlockValidity(blockName string, want ValidityState) {
	g.t.Helper()

	hash := g.BlockByName(blockName).BlockHash()
	meta, err := g.chain.HeaderMeta(&hash)
	if err != nil {
		g.t.Fatalf("block %q is not indexed: %v", blockName, err)
	}
	if meta.Validity != want {
		g.t.Fatalf("block %q has validity %v, want %v", blockName,
			meta.Validity, want)
	}
}

// AssertUtxo expects the output to be unspent with the provided amount when
// the amount is positive and to be absent otherwise.
func (g *chaingenHarness) AssertUtxo(outpoint wire.OutPoint, amount int64) {
	g.t.Helper()

	entry, err := g.chain.FetchUtxoEntry(outpoint)
	if err != nil {
		g.t.Fatalf("failed to fetch utxo %v: %v", outpoint, err)
	}
	switch {
	case amount <= 0 && entry != nil:
		g.t.Fatalf("output %v is unexpectedly unspent", outpoint)
	case amount > 0 && entry == nil:
		g.t.Fatalf("output %v is unexpectedly missing", outpoint)
	case amount > 0 && entry.Amount() != amount:
		g.t.Fatalf("output %v has amount %d, want %d", outpoint,
			entry.Amount(), amount)
	}
}

// AdvanceBlocks generates and accepts the given number of blocks on top of the
// current tip, naming them with the provided prefix followed by an index, and
// saves their coinbase outputs.
func (g *chaingenHarness) AdvanceBlocks(prefix string, n int) {
	g.t.Helper()

	for i := 0; i < n; i++ {
		g.NextBlock(fmt.Sprintf("%s%d", prefix, i), nil)
		g.SaveTipCoinbaseOuts()
		g.AcceptTipBlock()
	}
}

// AdvanceToMaturity generates and accepts enough blocks for the coinbase of
// the first of them to be spendable in the block that follows.
func (g *chaingenHarness) AdvanceToMaturity() {
	g.t.Helper()

	g.AdvanceBlocks("bm", int(g.Params().CoinbaseMaturity))
}
