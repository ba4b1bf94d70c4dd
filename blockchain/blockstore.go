// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
)

// BlockStore is a content addressed store of raw serialized blocks kept in the
// blocks bucket of a database.  Reads run in read-only database transactions
// and are therefore always safe for concurrent access.  Writes must be
// serialized by the caller.
type BlockStore struct {
	db database.DB
}

// NewBlockStore returns a block store backed by the provided database.  The
// chain state buckets are created when they do not exist yet.
func NewBlockStore(db database.DB) (*BlockStore, error) {
	err := db.Update(dbCreateBuckets)
	if err != nil {
		return nil, err
	}
	return &BlockStore{db: db}, nil
}

// dbHasBlock returns whether the raw bytes of the block are stored.
func dbHasBlock(dbTx database.Tx, hash *wire.BlockHash) (bool, error) {
	b, err := bucket(dbTx, blocksBucketName)
	if err != nil {
		return false, err
	}
	v, err := b.Get(hash[:])
	return v != nil, err
}

// dbPutBlock stores the raw bytes of a block unless they are already present.
func dbPutBlock(dbTx database.Tx, hash *wire.BlockHash, raw []byte) error {
	b, err := bucket(dbTx, blocksBucketName)
	if err != nil {
		return err
	}
	existing, err := b.Get(hash[:])
	if err != nil || existing != nil {
		return err
	}
	return b.Put(hash[:], raw)
}

// dbFetchBlock returns the raw bytes of a block.  A ContextError with
// ErrNotFound is returned when the block is not stored.
func dbFetchBlock(dbTx database.Tx, hash *wire.BlockHash) ([]byte, error) {
	b, err := bucket(dbTx, blocksBucketName)
	if err != nil {
		return nil, err
	}
	raw, err := b.Get(hash[:])
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, notFoundError(hash)
	}
	return raw, nil
}

// dbRemoveBlock removes the raw bytes of a block.
func dbRemoveBlock(dbTx database.Tx, hash *wire.BlockHash) error {
	b, err := bucket(dbTx, blocksBucketName)
	if err != nil {
		return err
	}
	return b.Delete(hash[:])
}

// Put stores the raw block and returns its hash.  The bytes must decode to a
// complete block.  Storing bytes that are already present performs no write.
func (s *BlockStore) Put(raw []byte) (wire.BlockHash, error) {
	block, err := wire.DecodeBlock(raw)
	if err != nil {
		str := fmt.Sprintf("unable to decode block: %v", err)
		return wire.BlockHash{}, ruleErrorRaw(ErrMalformedBlock, str, err)
	}
	hash := block.BlockHash()

	var exists bool
	err = s.db.View(func(dbTx database.Tx) error {
		var err error
		exists, err = dbHasBlock(dbTx, &hash)
		return err
	})
	if err != nil || exists {
		return hash, err
	}
	err = s.db.Update(func(dbTx database.Tx) error {
		return dbPutBlock(dbTx, &hash, raw)
	})
	return hash, err
}

// Get returns the raw bytes of the block with the provided hash.
func (s *BlockStore) Get(hash *wire.BlockHash) ([]byte, error) {
	var raw []byte
	err := s.db.View(func(dbTx database.Tx) error {
		var err error
		raw, err = dbFetchBlock(dbTx, hash)
		return err
	})
	return raw, err
}

// Has returns whether the block with the provided hash is stored.
func (s *BlockStore) Has(hash *wire.BlockHash) (bool, error) {
	var exists bool
	err := s.db.View(func(dbTx database.Tx) error {
		var err error
		exists, err = dbHasBlock(dbTx, hash)
		return err
	})
	return exists, err
}

// Prune removes the raw bytes of the block with the provided hash.  Removing a
// block that is not stored is not an error.
//
// The store does not know which blocks are part of the active chain, so the
// caller must never prune one of them.
func (s *BlockStore) Prune(hash *wire.BlockHash) error {
	return s.db.Update(func(dbTx database.Tx) error {
		return dbRemoveBlock(dbTx, hash)
	})
}
