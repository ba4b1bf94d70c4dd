// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
)

// removeBranch deletes the stored bytes, metadata and any undo record of the
// provided headers and drops them from the index.  None of them may be part of
// the main chain.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) removeBranch(metas []*HeaderMeta) error {
	err := b.db.Update(func(dbTx database.Tx) error {
		for _, meta := range metas {
			if err := dbRemoveBlock(dbTx, &meta.Hash); err != nil {
				return err
			}
			if err := dbRemoveHeaderMeta(dbTx, &meta.Hash); err != nil {
				return err
			}
			if err := dbRemoveUndoRecord(dbTx, meta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return b.storageFailure("prune blocks", err)
	}

	for _, meta := range metas {
		b.index.remove(meta)
	}
	return nil
}

// PruneBlock removes the block with the provided hash along with every known
// descendant of it.  Blocks of the main chain can not be pruned.
//
// This function is safe for concurrent access.
func (b *BlockChain) PruneBlock(hash *wire.BlockHash) error {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	if b.fatalErr != nil {
		return b.fatalErr
	}
	meta := b.index.lookup(hash)
	if meta == nil {
		return notFoundError(hash)
	}
	if b.bestChain.contains(meta) {
		str := fmt.Sprintf("refusing to prune main chain block %s (height "+
			"%d)", hash, meta.Height)
		return AssertError(str)
	}

	branch := append([]*HeaderMeta{meta}, b.index.descendants(meta)...)
	return b.removeBranch(branch)
}

// PruneStaleBranches removes every side branch whose tip is at least the
// maximum reorganization depth below the main chain tip, since such a branch
// can no longer become the main chain.  Blocks shared with a branch that is
// not stale are kept.  It returns the number of blocks removed.
//
// This function is safe for concurrent access.
func (b *BlockChain) PruneStaleBranches() (int, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	if b.fatalErr != nil {
		return 0, b.fatalErr
	}

	tip := b.bestChain.tip()
	var staleLeaves []*HeaderMeta
	keep := make(map[wire.BlockHash]struct{})
	for _, leaf := range b.index.leaves() {
		if b.bestChain.contains(leaf) {
			continue
		}
		if tip.Height-leaf.Height >= b.chainParams.MaxReorgDepth {
			staleLeaves = append(staleLeaves, leaf)
			continue
		}
		for n := leaf; n != nil && !b.bestChain.contains(n); n = b.index.parent(n) {
			keep[n.Hash] = struct{}{}
		}
	}

	// Collect each stale branch from its leaf down to the main chain,
	// stopping at blocks that are kept or already collected.
	var prune []*HeaderMeta
	seen := make(map[wire.BlockHash]struct{})
	for _, leaf := range staleLeaves {
		for n := leaf; n != nil && !b.bestChain.contains(n); n = b.index.parent(n) {
			if _, ok := keep[n.Hash]; ok {
				break
			}
			if _, ok := seen[n.Hash]; ok {
				break
			}
			seen[n.Hash] = struct{}{}
			prune = append(prune, n)
		}
	}
	if len(prune) == 0 {
		return 0, nil
	}
	if err := b.removeBranch(prune); err != nil {
		return 0, err
	}
	log.Infof("Pruned %d blocks from %d stale side branches", len(prune),
		len(staleLeaves))
	return len(prune), nil
}
