// Copyright (c) 2016-2025 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaingen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/internal/primitives"
	"github.com/zecnode/zecd/wire"
)

var (
	// opTrueScript is a simple public key script that contains the OP_TRUE
	// opcode.  Scripts are not interpreted by the chain, so every output
	// the generator creates pays to it.
	opTrueScript = []byte{0x51}

	// lowFee is a single atom and exists to make the test code more
	// readable.
	lowFee = int64(1)

	// blockInterval is the time between the timestamps of a generated block
	// and its parent.
	blockInterval = time.Minute
)

// SpendableOut represents a transaction output that is spendable along with
// additional metadata such as the block its in and how much it pays.
type SpendableOut struct {
	PrevOut     wire.OutPoint
	BlockHeight int64
	Amount      int64
}

// MakeSpendableOut returns a spendable output for the given block, transaction
// index within the block, and transaction output index within the transaction.
func MakeSpendableOut(block *wire.MsgBlock, txIndex, txOutIndex uint32) SpendableOut {
	tx := block.Transactions[txIndex]
	return SpendableOut{
		PrevOut: wire.OutPoint{
			Hash:  tx.TxID(),
			Index: txOutIndex,
		},
		BlockHeight: -1,
		Amount:      tx.TxOut[txOutIndex].Value,
	}
}

// Generator houses state used to ease the process of generating test blocks
// that build from one another along with housing other useful things such as
// available spendable outputs used throughout the tests.
type Generator struct {
	params   *chaincfg.Params
	eqParams primitives.EquihashParams
	tip      *wire.MsgBlock
	tipName  string

	blocks       map[wire.BlockHash]*wire.MsgBlock
	blockHeights map[wire.BlockHash]int64
	blocksByName map[string]*wire.MsgBlock
	blockNames   map[wire.BlockHash]string

	// Used for tracking spendable coinbase outputs.
	spendableOuts     []SpendableOut
	prevCollectedHash wire.BlockHash

	// coinbaseCounter makes every generated coinbase unique, so blocks at
	// the same height on different branches have distinct coinbases.
	coinbaseCounter uint64
}

// MakeGenerator returns a generator instance initialized with the genesis block
// as the tip.
func MakeGenerator(params *chaincfg.Params) (Generator, error) {
	eqParams := primitives.EquihashParams{N: params.EquihashN, K: params.EquihashK}
	if err := eqParams.Validate(); err != nil {
		return Generator{}, err
	}

	genesis := params.GenesisBlock
	genesisHash := genesis.BlockHash()
	return Generator{
		params:            params,
		eqParams:          eqParams,
		tip:               genesis,
		tipName:           "genesis",
		blocks:            map[wire.BlockHash]*wire.MsgBlock{genesisHash: genesis},
		blockHeights:      map[wire.BlockHash]int64{genesisHash: 0},
		blocksByName:      map[string]*wire.MsgBlock{"genesis": genesis},
		blockNames:        map[wire.BlockHash]string{genesisHash: "genesis"},
		prevCollectedHash: genesisHash,
	}, nil
}

// Params returns the chain params associated with the generator instance.
func (g *Generator) Params() *chaincfg.Params {
	return g.params
}

// Tip returns the current tip block of the generator instance.
func (g *Generator) Tip() *wire.MsgBlock {
	return g.tip
}

// TipName returns the name of the current tip block of the generator instance.
func (g *Generator) TipName() string {
	return g.tipName
}

// TipHeight returns the height of the current tip block.
func (g *Generator) TipHeight() int64 {
	return g.blockHeights[g.tip.BlockHash()]
}

// BlockByName returns the block associated with the provided block name.  It
// will panic if the specified block name does not exist.
func (g *Generator) BlockByName(blockName string) *wire.MsgBlock {
	block, ok := g.blocksByName[blockName]
	if !ok {
		panic(fmt.Sprintf("block name %s does not exist", blockName))
	}
	return block
}

// BlockByHash returns the block associated with the provided block hash.  It
// will panic if the specified block hash does not exist.
func (g *Generator) BlockByHash(hash *wire.BlockHash) *wire.MsgBlock {
	block, ok := g.blocks[*hash]
	if !ok {
		panic(fmt.Sprintf("block with hash %s does not exist", hash))
	}
	return block
}

// BlockHeight returns the height of the block with the provided name.  It will
// panic if the specified block name does not exist.
func (g *Generator) BlockHeight(blockName string) int64 {
	hash := g.BlockByName(blockName).BlockHash()
	return g.blockHeights[hash]
}

// CalcSubsidy returns the amount a coinbase at the provided height may pay
// without any fees.  The subsidy halves every halving interval.
func (g *Generator) CalcSubsidy(height int64) int64 {
	interval := g.params.SubsidyHalvingInterval
	if interval == 0 {
		return g.params.BaseSubsidy
	}
	halvings := height / interval
	if halvings >= 63 {
		return 0
	}
	return g.params.BaseSubsidy >> uint(halvings)
}

// CreateCoinbaseTx returns a coinbase transaction paying the subsidy for the
// provided height plus the provided fees to a single output.
func (g *Generator) CreateCoinbaseTx(blockHeight int64, fees int64) *wire.MsgTx {
	// The script commits to the height and a counter so every coinbase
	// has a unique hash.
	g.coinbaseCounter++
	coinbaseScript := make([]byte, 16)
	binary.LittleEndian.PutUint64(coinbaseScript[0:8], uint64(blockHeight))
	binary.LittleEndian.PutUint64(coinbaseScript[8:16], g.coinbaseCounter)

	tx := wire.NewMsgTx()
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint is
		// zero hash and max index.
		PreviousOutPoint: wire.OutPoint{
			Hash:  wire.TxID{},
			Index: wire.MaxPrevOutIndex,
		},
		Sequence:        wire.MaxTxInSequenceNum,
		SignatureScript: coinbaseScript,
	})
	tx.AddTxOut(wire.NewTxOut(g.CalcSubsidy(blockHeight)+fees, opTrueScript))
	return tx
}

// CreateSpendTx creates a transaction that spends from the provided spendable
// output to a single output paying its amount less the fee.  The public key
// script is a simple OP_TRUE script which avoids the need to track addresses
// and signature scripts in the tests.
func (g *Generator) CreateSpendTx(spend *SpendableOut, fee int64) *wire.MsgTx {
	spendTx := wire.NewMsgTx()
	spendTx.AddTxIn(wire.NewTxIn(&spend.PrevOut, opTrueScript))
	spendTx.AddTxOut(wire.NewTxOut(spend.Amount-fee, opTrueScript))
	return spendTx
}

// calcMerkleRoot returns the merkle root of the transactions of the block.
func calcMerkleRoot(txns []*wire.MsgTx) wire.MerkleRoot {
	if len(txns) == 0 {
		return wire.MerkleRoot{}
	}
	leaves := make([]chainhash.Hash, 0, len(txns))
	for _, tx := range txns {
		leaves = append(leaves, chainhash.Hash(tx.TxID()))
	}
	return wire.MerkleRoot(primitives.CalcMerkleRoot(leaves))
}

// solveBlock attempts to find a nonce and equihash solution which make the
// passed block header hash to a value less than the target difficulty.  When
// the difficulty bits are out of range, any valid equihash solution is used.
// It returns whether a solution was found.
//
// NOTE: This function will never solve blocks with a nonce of 0.  This is done
// so the 'NextBlock' function can properly detect when a nonce was modified by
// a munge function.
func (g *Generator) solveBlock(header *wire.BlockHeader) bool {
	checkTarget := primitives.CheckProofOfWorkRange(header.Bits,
		g.params.PowLimit) == nil
	for counter := uint64(1); counter < 1<<20; counter++ {
		binary.LittleEndian.PutUint64(header.Nonce[:8], counter)
		input := header.PowInput()
		for _, indices := range solveEquihash(g.eqParams, input, header.Nonce[:]) {
			solution := primitives.EncodeEquihashSolution(g.eqParams, indices)
			err := primitives.CheckEquihashSolution(g.eqParams, input,
				header.Nonce[:], solution)
			if err != nil {
				continue
			}
			header.Solution = solution
			if !checkTarget {
				return true
			}
			hash := chainhash.Hash(header.BlockHash())
			err = primitives.CheckProofOfWork(&hash, header.Bits,
				g.params.PowLimit)
			if err == nil {
				return true
			}
		}
	}
	return false
}

// NextBlock builds a new block that extends the current tip associated with the
// generator and updates the generator's tip to the newly generated block.
//
// The block will include the following:
//   - A coinbase that pays the required subsidy plus the fees to an OP_TRUE
//     script
//   - When a spendable output is provided, a transaction that spends from it
//     paying a single atom fee
//
// Additionally, if one or more munge functions are specified, they will be
// invoked with the block prior to solving it.  This provides callers with the
// opportunity to modify the block which is especially useful for testing.
//
// In order to simply the logic in the munge functions, the following rules are
// applied after all munge functions have been invoked:
//   - The merkle root will be recalculated unless it was manually changed
//   - The block will be solved unless the nonce was changed
func (g *Generator) NextBlock(blockName string, spend *SpendableOut, mungers ...func(*wire.MsgBlock)) *wire.MsgBlock {
	// Generate the transactions that spend from the provided output.
	var spendTxns []*wire.MsgTx
	var fees int64
	if spend != nil {
		spendTxns = append(spendTxns, g.CreateSpendTx(spend, lowFee))
		fees += lowFee
	}

	prevHash := g.tip.BlockHash()
	nextHeight := g.blockHeights[prevHash] + 1
	coinbaseTx := g.CreateCoinbaseTx(nextHeight, fees)
	txns := append([]*wire.MsgTx{coinbaseTx}, spendTxns...)

	block := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    4,
			PrevBlock:  prevHash,
			MerkleRoot: calcMerkleRoot(txns),
			Timestamp:  g.tip.Header.Timestamp.Add(blockInterval),
			Bits:       g.params.PowLimitBits,
		},
		Transactions: txns,
	}

	// Perform any block munging just before solving.  Only recalculate the
	// merkle root if it wasn't manually changed by a munge function.
	curMerkleRoot := block.Header.MerkleRoot
	curNonce := block.Header.Nonce
	for _, f := range mungers {
		f(&block)
	}
	if block.Header.MerkleRoot == curMerkleRoot {
		block.Header.MerkleRoot = calcMerkleRoot(block.Transactions)
	}

	// Only solve the block if the nonce wasn't manually changed by a munge
	// function.
	if block.Header.Nonce == curNonce && !g.solveBlock(&block.Header) {
		panic(fmt.Sprintf("unable to solve block at height %d", nextHeight))
	}

	// Update generator state and return the block.
	blockHash := block.BlockHash()
	if _, ok := g.blocksByName[blockName]; ok {
		panic(fmt.Sprintf("block name %s already exists", blockName))
	}
	g.blocks[blockHash] = &block
	g.blockHeights[blockHash] = nextHeight
	g.blocksByName[blockName] = &block
	g.blockNames[blockHash] = blockName
	g.tip = &block
	g.tipName = blockName
	return &block
}

// UpdateBlockState manually updates the generator state to remove all internal
// map references to a block via its old hash and insert new ones for the new
// block hash.  This is useful if the test code has to manually change a block
// after 'NextBlock' has returned.
func (g *Generator) UpdateBlockState(oldBlockName string, oldBlockHash wire.BlockHash, newBlockName string, newBlock *wire.MsgBlock) {
	// Remove existing entries.
	existingHeight := g.blockHeights[oldBlockHash]
	delete(g.blocks, oldBlockHash)
	delete(g.blockHeights, oldBlockHash)
	delete(g.blocksByName, oldBlockName)
	delete(g.blockNames, oldBlockHash)

	// Add new entries.
	newBlockHash := newBlock.BlockHash()
	g.blocks[newBlockHash] = newBlock
	g.blockHeights[newBlockHash] = existingHeight
	g.blocksByName[newBlockName] = newBlock
	g.blockNames[newBlockHash] = newBlockName
	if g.tipName == oldBlockName {
		g.tip = newBlock
		g.tipName = newBlockName
	}
}

// SetTip changes the tip of the instance to the block with the provided name.
// This is useful since the tip is used for things such as generating
// subsequent blocks.
func (g *Generator) SetTip(blockName string) {
	g.tip = g.BlockByName(blockName)
	g.tipName = blockName
}

// OldestCoinbaseOut removes the oldest coinbase output that was previously
// saved to the generator and returns it.  It will panic if there are none.
func (g *Generator) OldestCoinbaseOut() SpendableOut {
	if len(g.spendableOuts) == 0 {
		panic("no spendable coinbase outputs saved")
	}
	oldest := g.spendableOuts[0]
	g.spendableOuts = g.spendableOuts[1:]
	return oldest
}

// NumSpendableCoinbaseOuts returns the number of coinbase outputs saved to the
// generator that have not been handed out yet.
func (g *Generator) NumSpendableCoinbaseOuts() int {
	return len(g.spendableOuts)
}

// saveCoinbaseOut adds the coinbase output of the passed block to the list of
// spendable outputs.
func (g *Generator) saveCoinbaseOut(block *wire.MsgBlock) {
	out := MakeSpendableOut(block, 0, 0)
	out.BlockHeight = g.blockHeights[block.BlockHash()]
	g.spendableOuts = append(g.spendableOuts, out)
}

// SaveTipCoinbaseOuts adds the coinbase output of the current tip block to the
// list of spendable outputs.
func (g *Generator) SaveTipCoinbaseOuts() {
	g.saveCoinbaseOut(g.tip)
	g.prevCollectedHash = g.tip.BlockHash()
}

// SaveSpendableCoinbaseOuts adds all coinbase outputs from the last block that
// had its coinbase outputs collected to the current tip.  This is useful to
// batch the collection of coinbase outputs once the tests reach a stable
// point so they don't have to manually add them for the right tests which
// will ultimately end up being the best chain.
func (g *Generator) SaveSpendableCoinbaseOuts() {
	// Ensure tip is reset to the current one when done.
	curTipName := g.tipName
	defer g.SetTip(curTipName)

	// Loop through the ancestors of the current tip until the reaching the
	// block that has already had the coinbase outputs collected.
	var collectBlocks []*wire.MsgBlock
	for b := g.tip; b != nil; b = g.blocks[b.Header.PrevBlock] {
		if b.BlockHash() == g.prevCollectedHash {
			break
		}
		collectBlocks = append(collectBlocks, b)
	}
	for i := range collectBlocks {
		g.tip = collectBlocks[len(collectBlocks)-1-i]
		g.SaveTipCoinbaseOuts()
	}
}
