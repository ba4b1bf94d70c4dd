// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zecnode/zecd/blockchain"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/internal/progresslog"
	"github.com/zecnode/zecd/wire"
	"golang.org/x/sync/errgroup"
)

// importPeer is the peer imported blocks are attributed to.
const importPeer = blockchain.PeerID("import")

// importResults houses the stats of an import operation.
type importResults struct {
	blocksProcessed int64
	blocksImported  int64
	blocksSkipped   int64
	orphans         int64
}

// blockImporter houses information about an ongoing import from a block data
// file to the block database.
type blockImporter struct {
	chain        *blockchain.BlockChain
	r            io.Reader
	net          wire.CurrencyNet
	maxBlockSize uint32
	flags        blockchain.BehaviorFlags
	progress     *progresslog.Logger

	receivedBlocks int64
	importedBlocks int64
	skippedBlocks  int64
	orphanBlocks   int64
}

// newBlockImporter returns a new importer that reads blocks of the network
// described by params from r and processes them with the provided chain.
func newBlockImporter(chain *blockchain.BlockChain, params *chaincfg.Params, r io.Reader, fastAdd, showProgress bool) *blockImporter {
	flags := blockchain.BFNoOrphanEviction
	if fastAdd {
		flags |= blockchain.BFFastAdd
	}
	var progress *progresslog.Logger
	if showProgress {
		progress = progresslog.New("Imported", zimpLog)
	}
	return &blockImporter{
		chain:        chain,
		r:            r,
		net:          params.Net,
		maxBlockSize: uint32(params.MaxBlockSize),
		flags:        flags,
		progress:     progress,
	}
}

// readBlock reads the next block from the input file.  Every record is the
// network magic followed by the little endian length of the serialized block
// and the block itself.  A nil block without error is returned at the end of
// the file.
func (bi *blockImporter) readBlock() ([]byte, error) {
	var net uint32
	err := binary.Read(bi.r, binary.LittleEndian, &net)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read block record header: %w", err)
	}
	if wire.CurrencyNet(net) != bi.net {
		return nil, fmt.Errorf("network mismatch -- got %x, want %x",
			net, uint32(bi.net))
	}

	var blockLen uint32
	if err := binary.Read(bi.r, binary.LittleEndian, &blockLen); err != nil {
		return nil, fmt.Errorf("failed to read block length: %w", err)
	}
	if blockLen > bi.maxBlockSize {
		return nil, fmt.Errorf("block data length of %d is larger than the "+
			"max allowed %d", blockLen, bi.maxBlockSize)
	}

	serializedBlock := make([]byte, blockLen)
	if _, err := io.ReadFull(bi.r, serializedBlock); err != nil {
		return nil, fmt.Errorf("failed to read block data: %w", err)
	}
	return serializedBlock, nil
}

// processBlock potentially imports the block into the database.  Blocks that
// are already known are skipped.  Any block that is rejected aborts the
// import.
func (bi *blockImporter) processBlock(serializedBlock []byte) error {
	bi.receivedBlocks++

	block, err := wire.DecodeBlock(serializedBlock)
	if err != nil {
		return fmt.Errorf("block %d of the file is malformed: %w",
			bi.receivedBlocks, err)
	}
	blockHash := block.BlockHash()

	// Skip blocks that already exist.
	if _, err := bi.chain.HeaderMeta(&blockHash); err == nil ||
		bi.chain.IsKnownOrphan(&blockHash) {

		bi.skippedBlocks++
		return nil
	}

	result, err := bi.chain.ProcessBlock(serializedBlock, importPeer, bi.flags)
	if err != nil {
		return err
	}
	if result.Orphan {
		bi.orphanBlocks++
		zimpLog.Debugf("Buffered orphan block %v waiting for %v", blockHash,
			bi.chain.OrphanRoot(&blockHash))
		return nil
	}
	bi.importedBlocks++
	bi.logProgress(block)

	// Buffered orphans count as imported once their parent connects them.
	for _, outcome := range result.Connected {
		if outcome.Err != nil {
			return outcome.Err
		}
		bi.orphanBlocks--
		bi.importedBlocks++
		if connected, err := bi.chain.BlockByHash(&outcome.Hash); err == nil {
			bi.logProgress(connected)
		}
	}
	return nil
}

// logProgress shows the progress of the import when enabled.
func (bi *blockImporter) logProgress(block *wire.MsgBlock) {
	if bi.progress == nil {
		return
	}
	best := bi.chain.BestSnapshot()
	bi.progress.LogProgress(block, best.Height, false)
}

// Import reads the input file and processes every block it contains until the
// end of the file, the first failure, or cancellation of the context.
// Reading runs concurrently with processing.
func (bi *blockImporter) Import(ctx context.Context) (*importResults, error) {
	g, gctx := errgroup.WithContext(ctx)
	blocks := make(chan []byte, 100)

	// Read blocks from the file until the end of it or the processor stops.
	g.Go(func() error {
		defer close(blocks)
		for {
			serializedBlock, err := bi.readBlock()
			if err != nil || serializedBlock == nil {
				return err
			}
			select {
			case blocks <- serializedBlock:
			case <-gctx.Done():
				return nil
			}
		}
	})

	// Process the blocks in the order they were read.
	g.Go(func() error {
		for serializedBlock := range blocks {
			if gctx.Err() != nil {
				return nil
			}
			if err := bi.processBlock(serializedBlock); err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return &importResults{
		blocksProcessed: bi.receivedBlocks,
		blocksImported:  bi.importedBlocks,
		blocksSkipped:   bi.skippedBlocks,
		orphans:         bi.orphanBlocks,
	}, err
}
