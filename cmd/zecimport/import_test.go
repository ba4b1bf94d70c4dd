// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/zecnode/zecd/blockchain"
	"github.com/zecnode/zecd/blockchain/chaingen"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
)

// blockFile serializes the provided blocks in the import file format.
func blockFile(net wire.CurrencyNet, blocks ...*wire.MsgBlock) []byte {
	var buf bytes.Buffer
	for _, block := range blocks {
		serialized := block.Bytes()
		binary.Write(&buf, binary.LittleEndian, uint32(net))
		binary.Write(&buf, binary.LittleEndian, uint32(len(serialized)))
		buf.Write(serialized)
	}
	return buf.Bytes()
}

// newTestChain returns a regression test chain backed by a memory database
// along with a generator for blocks that extend it.
func newTestChain(t *testing.T) (*blockchain.BlockChain, *chaingen.Generator) {
	t.Helper()

	params := chaincfg.RegNetParams()
	db, err := database.Create("leveldb", "", params.Net)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	chain, err := blockchain.New(&blockchain.Config{
		DB:          db,
		ChainParams: params,
	})
	if err != nil {
		t.Fatalf("failed to create chain: %v", err)
	}
	g, err := chaingen.MakeGenerator(params)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}
	return chain, &g
}

// TestImport ensures blocks are imported from a file even when they are out
// of order and that known blocks are skipped.
func TestImport(t *testing.T) {
	chain, g := newTestChain(t)
	genesis := g.BlockByName("genesis")
	var blocks []*wire.MsgBlock
	for _, name := range []string{"b1", "b2", "b3", "b4", "b5"} {
		blocks = append(blocks, g.NextBlock(name, nil))
	}
	blocks[2], blocks[3] = blocks[3], blocks[2]
	file := blockFile(wire.RegNet, append([]*wire.MsgBlock{genesis}, blocks...)...)

	importer := newBlockImporter(chain, chaincfg.RegNetParams(),
		bytes.NewReader(file), false, true)
	results, err := importer.Import(context.Background())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	want := importResults{
		blocksProcessed: 6,
		blocksImported:  5,
		blocksSkipped:   1,
	}
	if *results != want {
		t.Fatalf("unexpected results %+v, want %+v", *results, want)
	}
	best := chain.BestSnapshot()
	if best.Height != 5 || best.Hash != g.Tip().BlockHash() {
		t.Fatalf("unexpected tip %v at height %d", best.Hash, best.Height)
	}

	// Importing the same file again skips everything.
	importer = newBlockImporter(chain, chaincfg.RegNetParams(),
		bytes.NewReader(file), true, false)
	results, err = importer.Import(context.Background())
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	want = importResults{blocksProcessed: 6, blocksSkipped: 6}
	if *results != want {
		t.Fatalf("unexpected results %+v, want %+v", *results, want)
	}
}

// TestImportFailures ensures malformed files and rejected blocks stop the
// import.
func TestImportFailures(t *testing.T) {
	chain, g := newTestChain(t)
	b1 := g.NextBlock("b1", nil)
	bad := g.NextBlock("b2bad", nil, func(b *wire.MsgBlock) {
		b.Transactions[0].TxOut[0].Value++
	})
	valid := blockFile(wire.RegNet, b1)

	tests := []struct {
		name string
		file []byte
	}{{
		name: "wrong network",
		file: blockFile(wire.MainNet, b1),
	}, {
		name: "truncated length",
		file: valid[:6],
	}, {
		name: "truncated block",
		file: valid[:len(valid)-1],
	}, {
		name: "oversized record",
		file: func() []byte {
			file := append([]byte(nil), valid...)
			binary.LittleEndian.PutUint32(file[4:], wire.MaxBlockPayload+1)
			return file
		}(),
	}, {
		name: "undecodable block",
		file: func() []byte {
			file := append([]byte(nil), valid[:8]...)
			binary.LittleEndian.PutUint32(file[4:], 2)
			return append(file, 0x04, 0x00)
		}(),
	}}

	for _, test := range tests {
		importer := newBlockImporter(chain, chaincfg.RegNetParams(),
			bytes.NewReader(test.file), false, false)
		if _, err := importer.Import(context.Background()); err == nil {
			t.Errorf("%s: import did not fail", test.name)
		}
	}

	// A block that fails validation aborts the import after the blocks
	// before it were imported.
	file := blockFile(wire.RegNet, b1, bad)
	importer := newBlockImporter(chain, chaincfg.RegNetParams(),
		bytes.NewReader(file), false, false)
	results, err := importer.Import(context.Background())
	var rejection *blockchain.Rejection
	if !errors.As(err, &rejection) {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(err, blockchain.ErrBadCoinbaseValue) {
		t.Fatalf("unexpected rejection %v", err)
	}
	if results.blocksImported != 1 {
		t.Fatalf("unexpected number of imported blocks %d",
			results.blocksImported)
	}
	if chain.BestSnapshot().Hash != b1.BlockHash() {
		t.Fatal("tip is not the last valid block")
	}
}

// TestImportCanceled ensures a canceled import stops without processing any
// blocks.
func TestImportCanceled(t *testing.T) {
	chain, g := newTestChain(t)
	file := blockFile(wire.RegNet, g.NextBlock("b1", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	importer := newBlockImporter(chain, chaincfg.RegNetParams(),
		bytes.NewReader(file), false, false)
	results, err := importer.Import(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error %v", err)
	}
	if results.blocksImported != 0 {
		t.Fatalf("canceled import processed %d blocks", results.blocksImported)
	}
}
