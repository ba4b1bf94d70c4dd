// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2018-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/decred/dcrd/math/uint256"
	"github.com/zecnode/zecd/internal/primitives"
	"github.com/zecnode/zecd/wire"
)

// ValidityState is the validation state of a known header.
type ValidityState uint8

// The following constants specify the possible validation states.
//
// NOTE: This section specifically does not use iota since the state is
// serialized and must be stable for long-term storage.
const (
	// ValidityUnchecked indicates nothing about the block has been checked.
	ValidityUnchecked ValidityState = 0

	// ValidityStructural indicates the block passed every check that does
	// not depend on the chain it extends.
	ValidityStructural ValidityState = 1

	// ValidityContextual indicates the block was connected to the chain it
	// extends.  It also means every ancestor was connected.
	ValidityContextual ValidityState = 2

	// ValidityInvalid indicates the block failed validation.
	ValidityInvalid ValidityState = 3

	// ValidityInvalidAncestor indicates an ancestor of the block failed
	// validation, thus the block is also invalid.
	ValidityInvalidAncestor ValidityState = 4
)

// validityStrings is a map of validity states back to their constant names for
// pretty printing.
var validityStrings = map[ValidityState]string{
	ValidityUnchecked:       "ValidityUnchecked",
	ValidityStructural:      "ValidityStructural",
	ValidityContextual:      "ValidityContextual",
	ValidityInvalid:         "ValidityInvalid",
	ValidityInvalidAncestor: "ValidityInvalidAncestor",
}

// String returns the ValidityState as a human-readable name.
func (v ValidityState) String() string {
	if s := validityStrings[v]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ValidityState (%d)", uint8(v))
}

// KnownInvalid returns whether either the block itself is known to be invalid
// or to have an invalid ancestor.
func (v ValidityState) KnownInvalid() bool {
	return v == ValidityInvalid || v == ValidityInvalidAncestor
}

// HeaderMeta is the metadata kept for every known block.  Ancestry is followed
// by looking up ParentHash in the index, never through pointers.
type HeaderMeta struct {
	Hash       wire.BlockHash
	ParentHash wire.BlockHash
	Height     int64
	Timestamp  int64
	Bits       uint32

	// WorkSum is the total amount of work in the chain up to and including
	// this block.
	WorkSum uint256.Uint256

	Validity ValidityState

	// OrderID is a monotonically increasing number assigned when the header
	// was first inserted.  It breaks ties between headers with equal work.
	OrderID uint64
}

// betterThan returns whether the header is preferred over other as the tip of
// the active chain.  More cumulative work wins.  Equal work is decided in favor
// of the header inserted first and finally by the lower hash, so the order is
// total.
func (m *HeaderMeta) betterThan(other *HeaderMeta) bool {
	if cmp := m.WorkSum.Cmp(&other.WorkSum); cmp != 0 {
		return cmp > 0
	}
	if m.OrderID != other.OrderID {
		return m.OrderID < other.OrderID
	}
	return bytes.Compare(m.Hash[:], other.Hash[:]) < 0
}

// blockIndex provides facilities for keeping track of the metadata of every
// known header.  Entries are keyed by hash in a flat table.
type blockIndex struct {
	mtx         sync.RWMutex
	index       map[wire.BlockHash]*HeaderMeta
	children    map[wire.BlockHash][]wire.BlockHash
	nextOrderID uint64
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex() *blockIndex {
	return &blockIndex{
		index:    make(map[wire.BlockHash]*HeaderMeta),
		children: make(map[wire.BlockHash][]wire.BlockHash),
	}
}

// addMeta adds the provided metadata to the index without any checks.  It is
// used when loading the index from the database.
//
// This function MUST be called with the index lock held (for writes).
func (bi *blockIndex) addMeta(meta *HeaderMeta) {
	bi.index[meta.Hash] = meta
	if meta.Height > 0 {
		bi.children[meta.ParentHash] = append(bi.children[meta.ParentHash],
			meta.Hash)
	}
	if meta.OrderID >= bi.nextOrderID {
		bi.nextOrderID = meta.OrderID + 1
	}
}

// nextID returns the insertion id the next inserted header will receive.
//
// This function is safe for concurrent access.
func (bi *blockIndex) nextID() uint64 {
	bi.mtx.RLock()
	id := bi.nextOrderID
	bi.mtx.RUnlock()
	return id
}

// InsertHeader adds the header to the index with the provided validity and
// returns its metadata.  The cumulative work is derived from the metadata of
// the parent, so ErrUnknownParent is returned when the parent is not known.
// Inserting a header that is already known returns the existing metadata.
//
// This function is safe for concurrent access.
func (bi *blockIndex) InsertHeader(header *wire.BlockHeader, validity ValidityState) (*HeaderMeta, error) {
	hash := header.BlockHash()

	bi.mtx.Lock()
	defer bi.mtx.Unlock()

	if meta, ok := bi.index[hash]; ok {
		return meta, nil
	}
	parent, ok := bi.index[header.PrevBlock]
	if !ok {
		str := fmt.Sprintf("parent %s of header %s is not known",
			header.PrevBlock, hash)
		return nil, ruleError(ErrUnknownParent, str)
	}

	work := primitives.CalcWork(header.Bits)
	meta := &HeaderMeta{
		Hash:       hash,
		ParentHash: header.PrevBlock,
		Height:     parent.Height + 1,
		Timestamp:  header.Timestamp.Unix(),
		Bits:       header.Bits,
		Validity:   validity,
		OrderID:    bi.nextOrderID,
	}
	meta.WorkSum.Set(&parent.WorkSum).Add(&work)
	bi.addMeta(meta)
	return meta, nil
}

// lookup returns the metadata for the provided hash or nil when there is none.
//
// This function is safe for concurrent access.
func (bi *blockIndex) lookup(hash *wire.BlockHash) *HeaderMeta {
	bi.mtx.RLock()
	meta := bi.index[*hash]
	bi.mtx.RUnlock()
	return meta
}

// metaCopy returns a copy of the metadata for the provided hash so the caller
// can not observe later validity changes.
//
// This function is safe for concurrent access.
func (bi *blockIndex) metaCopy(hash *wire.BlockHash) (HeaderMeta, bool) {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	meta, ok := bi.index[*hash]
	if !ok {
		return HeaderMeta{}, false
	}
	return *meta, true
}

// setValidity updates the validity state of the provided metadata.
//
// This function is safe for concurrent access.
func (bi *blockIndex) setValidity(meta *HeaderMeta, validity ValidityState) {
	bi.mtx.Lock()
	meta.Validity = validity
	bi.mtx.Unlock()
}

// parent returns the metadata of the parent of the provided header or nil for
// the genesis block.
//
// This function is safe for concurrent access.
func (bi *blockIndex) parent(meta *HeaderMeta) *HeaderMeta {
	if meta.Height == 0 {
		return nil
	}
	return bi.lookup(&meta.ParentHash)
}

// ancestor returns the ancestor of the provided header at the given height by
// following parent hashes.  It returns nil when the height is out of range.
//
// This function is safe for concurrent access.
func (bi *blockIndex) ancestor(meta *HeaderMeta, height int64) *HeaderMeta {
	if height < 0 || height > meta.Height {
		return nil
	}
	for meta != nil && meta.Height > height {
		meta = bi.parent(meta)
	}
	return meta
}

// descendants returns the metadata of every known descendant of the provided
// header in breadth first order.
//
// This function is safe for concurrent access.
func (bi *blockIndex) descendants(meta *HeaderMeta) []*HeaderMeta {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()

	var result []*HeaderMeta
	queue := []wire.BlockHash{meta.Hash}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		for _, child := range bi.children[hash] {
			if childMeta, ok := bi.index[child]; ok {
				result = append(result, childMeta)
				queue = append(queue, child)
			}
		}
	}
	return result
}

// leaves returns the metadata of every known header without children.
//
// This function is safe for concurrent access.
func (bi *blockIndex) leaves() []*HeaderMeta {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()

	var result []*HeaderMeta
	for hash, meta := range bi.index {
		if len(bi.children[hash]) == 0 {
			result = append(result, meta)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})
	return result
}

// remove deletes the metadata for the provided hash from the index.
//
// This function is safe for concurrent access.
func (bi *blockIndex) remove(meta *HeaderMeta) {
	bi.mtx.Lock()
	defer bi.mtx.Unlock()

	delete(bi.index, meta.Hash)
	delete(bi.children, meta.Hash)
	siblings := bi.children[meta.ParentHash]
	for i := range siblings {
		if siblings[i] == meta.Hash {
			siblings = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	if len(siblings) == 0 {
		delete(bi.children, meta.ParentHash)
	} else {
		bi.children[meta.ParentHash] = siblings
	}
}

// calcPastMedianTime returns the median of the timestamps of the provided
// header and up to numBlocks-1 of its ancestors.
//
// This function is safe for concurrent access.
func (bi *blockIndex) calcPastMedianTime(meta *HeaderMeta, numBlocks int) int64 {
	timestamps := make([]int64, 0, numBlocks)
	for iter := meta; iter != nil && len(timestamps) < numBlocks; iter = bi.parent(iter) {
		timestamps = append(timestamps, iter.Timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})

	// NOTE: The consensus rules incorrectly calculate the median for even
	// numbers of blocks.  A true median averages the middle two elements
	// for a set with an even number of elements in it.  Since the constant
	// for the previous number of blocks to be used is odd, this is only an
	// issue for a few blocks near the beginning of the chain.
	return timestamps[len(timestamps)/2]
}
