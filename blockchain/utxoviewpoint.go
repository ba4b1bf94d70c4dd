// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
)

// UtxoViewpoint represents a view into the set of unspent transaction outputs
// from a specific point of view in the chain.  For example, it could be for
// the end of the main chain, some point in the history of the main chain, or
// down a side chain.
//
// Entries missing from the view are loaded from the backing database, if any.
// The view records every change in memory, so discarding it leaves the
// database untouched.
type UtxoViewpoint struct {
	db      database.DB
	entries map[wire.OutPoint]*UtxoEntry
}

// NewUtxoViewpoint returns a new empty unspent transaction output view that is
// not backed by a database.
func NewUtxoViewpoint() *UtxoViewpoint {
	return &UtxoViewpoint{entries: make(map[wire.OutPoint]*UtxoEntry)}
}

// newUtxoViewpointDB returns a new empty view backed by the utxo set stored in
// the provided database.
func newUtxoViewpointDB(db database.DB) *UtxoViewpoint {
	view := NewUtxoViewpoint()
	view.db = db
	return view
}

// AddEntry adds an unspent entry for the outpoint to the view, replacing any
// existing entry.
func (view *UtxoViewpoint) AddEntry(outpoint wire.OutPoint, entry *UtxoEntry) {
	entry.state |= utxoStateModified
	view.entries[outpoint] = entry
}

// LookupEntry returns the unspent entry for the outpoint or nil when the
// output does not exist or is spent.
func (view *UtxoViewpoint) LookupEntry(outpoint wire.OutPoint) (*UtxoEntry, error) {
	entry, ok := view.entries[outpoint]
	if !ok && view.db != nil {
		err := view.db.View(func(dbTx database.Tx) error {
			var err error
			entry, err = dbFetchUtxoEntry(dbTx, &outpoint)
			return err
		})
		if err != nil {
			return nil, err
		}
		if entry != nil {
			view.entries[outpoint] = entry
		}
	}
	if entry == nil || entry.IsSpent() {
		return nil, nil
	}
	return entry, nil
}

// stagedView layers uncommitted changes over a view so a failed block leaves
// the view unchanged.
type stagedView struct {
	view    *UtxoViewpoint
	changes map[wire.OutPoint]*UtxoEntry
}

// lookup returns the unspent entry for the outpoint taking staged changes into
// account.
func (s *stagedView) lookup(outpoint wire.OutPoint) (*UtxoEntry, error) {
	if entry, ok := s.changes[outpoint]; ok {
		if entry.IsSpent() {
			return nil, nil
		}
		return entry, nil
	}
	return s.view.LookupEntry(outpoint)
}

// spend stages the removal of the outpoint.
func (s *stagedView) spend(outpoint wire.OutPoint, entry *UtxoEntry) {
	spent := entry.Clone()
	spent.Spend()
	s.changes[outpoint] = spent
}

// add stages the insertion of the entry.
func (s *stagedView) add(outpoint wire.OutPoint, entry *UtxoEntry) {
	entry.state = utxoStateModified
	s.changes[outpoint] = entry
}

// merge moves every staged change into the view.
func (s *stagedView) merge() {
	for outpoint, entry := range s.changes {
		s.view.entries[outpoint] = entry
	}
}

// ApplyBlock spends every output referenced by the inputs of the block and
// adds every output it creates.  Transactions are processed in block order so
// outputs created earlier in the block may be spent later in it.
//
// ErrMissingOrSpentOutput is returned when an input references an output that
// does not exist or was already spent, and ErrOverwriteOutput when an output
// would replace an unspent one.  The view is left unchanged on any error.
//
// The returned undo record captures the exact pre-images of the spent outputs
// and the outputs created, so UndoBlock can reverse the block.
func (view *UtxoViewpoint) ApplyBlock(block *wire.MsgBlock, height int64) (*UndoRecord, error) {
	staged := &stagedView{view: view, changes: make(map[wire.OutPoint]*UtxoEntry)}
	createdHere := make(map[wire.OutPoint]struct{})
	undo := new(UndoRecord)
	for txIdx, tx := range block.Transactions {
		isCoinBase := txIdx == 0
		if !isCoinBase {
			for _, txIn := range tx.TxIn {
				outpoint := txIn.PreviousOutPoint
				entry, err := staged.lookup(outpoint)
				if err != nil {
					return nil, err
				}
				if entry == nil {
					str := fmt.Sprintf("output %v referenced from "+
						"transaction %s:%d either does not exist or "+
						"has already been spent", outpoint, tx.TxID(),
						txIdx)
					return nil, ruleError(ErrMissingOrSpentOutput, str)
				}
				if _, ok := createdHere[outpoint]; ok {
					delete(createdHere, outpoint)
				} else {
					undo.Spent = append(undo.Spent, SpentOutput{
						OutPoint: outpoint,
						Entry:    entry.Clone(),
					})
				}
				staged.spend(outpoint, entry)
			}
		}

		txID := tx.TxID()
		for outIdx, txOut := range tx.TxOut {
			outpoint := wire.OutPoint{Hash: txID, Index: uint32(outIdx)}
			existing, err := staged.lookup(outpoint)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				str := fmt.Sprintf("transaction %s creates output %v "+
					"which is already unspent", txID, outpoint)
				return nil, ruleError(ErrOverwriteOutput, str)
			}
			staged.add(outpoint, NewUtxoEntry(txOut.Value, txOut.PkScript,
				height, isCoinBase))
			createdHere[outpoint] = struct{}{}
		}
	}

	// Record the created outputs that survived the block in block order so
	// the record is deterministic.
	for _, tx := range block.Transactions {
		txID := tx.TxID()
		for outIdx := range tx.TxOut {
			outpoint := wire.OutPoint{Hash: txID, Index: uint32(outIdx)}
			if _, ok := createdHere[outpoint]; ok {
				undo.Created = append(undo.Created, outpoint)
			}
		}
	}

	staged.merge()
	return undo, nil
}

// UndoBlock reverses a block previously applied with ApplyBlock using the
// undo record it returned.  Every created output is removed and every spent
// pre-image is restored exactly.  The view is left unchanged on any error.
func (view *UtxoViewpoint) UndoBlock(block *wire.MsgBlock, undo *UndoRecord) error {
	txIDs := make(map[wire.TxID]struct{}, len(block.Transactions))
	for _, tx := range block.Transactions {
		txIDs[tx.TxID()] = struct{}{}
	}

	staged := &stagedView{view: view, changes: make(map[wire.OutPoint]*UtxoEntry)}
	for _, outpoint := range undo.Created {
		if _, ok := txIDs[outpoint.Hash]; !ok {
			str := fmt.Sprintf("undo record of block %s lists output %v "+
				"the block did not create", block.BlockHash(), outpoint)
			return AssertError(str)
		}
		entry, err := staged.lookup(outpoint)
		if err != nil {
			return err
		}
		if entry == nil {
			str := fmt.Sprintf("output %v created by block %s is not "+
				"unspent", outpoint, block.BlockHash())
			return AssertError(str)
		}
		staged.spend(outpoint, entry)
	}
	for i := range undo.Spent {
		spent := &undo.Spent[i]
		entry, err := staged.lookup(spent.OutPoint)
		if err != nil {
			return err
		}
		if entry != nil {
			str := fmt.Sprintf("output %v spent by block %s is unspent",
				spent.OutPoint, block.BlockHash())
			return AssertError(str)
		}
		staged.add(spent.OutPoint, spent.Entry.Clone())
	}

	staged.merge()
	return nil
}

// commit writes every modified entry of the view to the utxo set of the
// database.  Spent entries are removed from the set.
func (view *UtxoViewpoint) commit(dbTx database.Tx) error {
	for outpoint, entry := range view.entries {
		if !entry.isModified() {
			continue
		}
		if entry.IsSpent() {
			if err := dbRemoveUtxoEntry(dbTx, &outpoint); err != nil {
				return err
			}
			continue
		}
		if err := dbPutUtxoEntry(dbTx, &outpoint, entry); err != nil {
			return err
		}
	}
	return nil
}
