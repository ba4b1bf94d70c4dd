// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/container/apbf"
	"github.com/decred/dcrd/math/uint256"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
)

const (
	// maxRecentRejects is the minimum number of rejected block hashes the
	// recent rejects filter remembers.
	maxRecentRejects = 1000

	// recentRejectsFPRate is the false positive rate of the recent rejects
	// filter.
	recentRejectsFPRate = 0.0000001
)

// BestState houses information about the current best block and other info
// related to the state of the main chain as it exists from the point of view of
// the current best block.
//
// The BestSnapshot method can be used to obtain access to this information
// in a concurrent safe manner and the data will not be changed out from under
// the caller when chain state changes occur as the function name implies.
// However, the returned snapshot must be treated as immutable since it is
// shared by all callers.
type BestState struct {
	Hash       wire.BlockHash  // The hash of the block.
	PrevHash   wire.BlockHash  // The previous block hash.
	Height     int64           // The height of the block.
	Bits       uint32          // The difficulty bits of the block.
	WorkSum    uint256.Uint256 // The total work of the chain.
	BlockTxns  uint64          // The number of txns in the block.
	TotalTxns  uint64          // The total number of txns in the chain.
	MedianTime time.Time       // Median time as per calcPastMedianTime.
}

// newBestState returns a new best stats instance for the given parameters.
func newBestState(meta *HeaderMeta, blockTxns, totalTxns uint64, medianTime time.Time) *BestState {
	return &BestState{
		Hash:       meta.Hash,
		PrevHash:   meta.ParentHash,
		Height:     meta.Height,
		Bits:       meta.Bits,
		WorkSum:    meta.WorkSum,
		BlockTxns:  blockTxns,
		TotalTxns:  totalTxns,
		MedianTime: medianTime,
	}
}

// chainView is the ordered list of the headers of the active chain indexed by
// height.
type chainView struct {
	nodes []*HeaderMeta
}

// tip returns the last header of the view.
func (c *chainView) tip() *HeaderMeta {
	return c.nodes[len(c.nodes)-1]
}

// contains returns whether the header is part of the view.
func (c *chainView) contains(meta *HeaderMeta) bool {
	return meta.Height < int64(len(c.nodes)) &&
		c.nodes[meta.Height].Hash == meta.Hash
}

// setTip replaces every header above the fork point with the attached headers.
// The first attached header must be a child of the header at forkHeight.
func (c *chainView) setTip(forkHeight int64, attach []*HeaderMeta) {
	nodes := c.nodes[:forkHeight+1:forkHeight+1]
	c.nodes = append(nodes, attach...)
}

// BlockChain provides functions for working with the block chain.  It includes
// functionality such as rejecting duplicate blocks, ensuring blocks follow all
// rules, orphan handling, checkpoint handling, and best chain selection with
// reorganization.
type BlockChain struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	db                  database.DB
	chainParams         *chaincfg.Params
	verifiers           Verifiers
	checkpointsByHeight map[int64]*chaincfg.Checkpoint
	blockStore          *BlockStore

	// chainLock serializes block processing and pruning.  Every field
	// below up to the state lock is protected by it.
	chainLock sync.Mutex

	// index houses the metadata of every known header.  It has its own
	// lock so queries may read it while blocks are processed.
	index *blockIndex

	// bestChain tracks the headers of the active chain.
	bestChain chainView

	// totalTxns is the number of transactions in the active chain.
	totalTxns uint64

	// orphans buffers blocks whose parents are not known yet.
	orphans *orphanPool

	// recentRejects remembers blocks that failed validation so repeated
	// submissions can be flagged.
	recentRejects *apbf.Filter

	// fatalErr is set when a storage failure leaves the database in a state
	// the chain can no longer reason about.  Every later block is refused
	// with it.
	fatalErr error

	// These fields are related to the best chain state.  They are
	// protected by the state lock.
	stateLock     sync.RWMutex
	stateSnapshot *BestState
}

// Config is a descriptor which specifies the blockchain instance configuration.
type Config struct {
	// DB defines the database which houses the blocks and will be used to
	// store all metadata created by this package such as the utxo set.
	//
	// This field is required.
	DB database.DB

	// ChainParams identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// Verifiers defines the proof and signature verifiers of every value
	// pool.  Pools without a verifier are not checked.
	Verifiers Verifiers

	// OrphanCapacity overrides the orphan capacity of the chain parameters
	// when it is non-zero.  A negative value disables the orphan buffer.
	OrphanCapacity int
}

// New returns a BlockChain instance using the provided configuration details.
// The chain state is initialized with the genesis block of the network when
// the database is empty and loaded from it otherwise.
func New(config *Config) (*BlockChain, error) {
	// Enforce required config fields.
	if config.DB == nil {
		return nil, AssertError("blockchain.New database is nil")
	}
	if config.ChainParams == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}

	params := config.ChainParams
	byHeight, err := checkpointsByHeight(params)
	if err != nil {
		return nil, err
	}
	blockStore, err := NewBlockStore(config.DB)
	if err != nil {
		return nil, err
	}

	orphanCapacity := params.OrphanCapacity
	if config.OrphanCapacity != 0 {
		orphanCapacity = config.OrphanCapacity
	}

	b := BlockChain{
		db:                  config.DB,
		chainParams:         params,
		verifiers:           config.Verifiers,
		checkpointsByHeight: byHeight,
		blockStore:          blockStore,
		index:               newBlockIndex(),
		orphans:             newOrphanPool(orphanCapacity),
		recentRejects:       apbf.NewFilter(maxRecentRejects, recentRejectsFPRate),
	}
	if err := b.initChainState(); err != nil {
		return nil, err
	}

	tip := b.bestChain.tip()
	log.Infof("Chain state: height %d, hash %v, total transactions %d, "+
		"known headers %d", tip.Height, tip.Hash, b.totalTxns,
		len(b.index.index))
	return &b, nil
}

// BestSnapshot returns information about the current best chain block and
// related state as of the current point in time.  The returned instance must be
// treated as immutable since it is shared by all callers.  The tip may move
// before a later query of the utxo set, so use FetchUtxoEntryWithSnapshot when
// both must describe the same tip.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestSnapshot() *BestState {
	b.stateLock.RLock()
	snapshot := b.stateSnapshot
	b.stateLock.RUnlock()
	return snapshot
}

// storageFailure records a fatal storage failure and returns it.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) storageFailure(op string, err error) error {
	var sErr StorageError
	if !errors.As(err, &sErr) {
		sErr = StorageError{Op: op, Err: err}
	}
	b.fatalErr = sErr
	log.Warnf("Refusing further blocks after storage failure: %v", sErr)
	return sErr
}

// findFork returns the last header shared by the active chain and the chain
// ending at the provided header.
//
// This function MUST be called with the chain lock held (for reads).
func (b *BlockChain) findFork(meta *HeaderMeta) *HeaderMeta {
	for meta != nil && !b.bestChain.contains(meta) {
		meta = b.index.parent(meta)
	}
	return meta
}

// persistMetas writes the provided header metadata to the database.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) persistMetas(metas ...*HeaderMeta) error {
	err := b.db.Update(func(dbTx database.Tx) error {
		for _, meta := range metas {
			if err := dbPutHeaderMeta(dbTx, meta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return b.storageFailure("store header metadata", err)
	}
	return nil
}

// markInvalid marks the provided header invalid and every known descendant of
// it as having an invalid ancestor.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) markInvalid(meta *HeaderMeta) error {
	b.index.setValidity(meta, ValidityInvalid)
	modified := []*HeaderMeta{meta}
	for _, desc := range b.index.descendants(meta) {
		if !desc.Validity.KnownInvalid() {
			b.index.setValidity(desc, ValidityInvalidAncestor)
			modified = append(modified, desc)
		}
	}
	b.recentRejects.Add(meta.Hash[:])
	return b.persistMetas(modified...)
}

// connectBestChain handles connecting the passed block to the chain while
// respecting proper chain selection according to the chain with the most
// proof of work.  In the typical case, the new block simply extends the main
// chain.  However, it may also be extending (or creating) a side chain (fork)
// which may or may not end up becoming the main chain depending on which fork
// cumulatively has the most proof of work.  It returns whether the block is
// part of the main chain afterwards.
//
// The flags modify the behavior of this function as follows:
//   - BFFastAdd: Skips proof verification.  This is useful when the blocks
//     are known to be covered by a checkpoint.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) connectBestChain(meta *HeaderMeta, block *wire.MsgBlock, raw []byte, flags BehaviorFlags) (bool, error) {
	newBlock := &pendingBlock{meta: meta, block: block, raw: raw}

	// We are extending the main (best) chain with a new block.  This is the
	// most common case.
	tip := b.bestChain.tip()
	if meta.ParentHash == tip.Hash {
		err := b.reorganizeChain(nil, []*HeaderMeta{meta}, newBlock, flags)
		if err != nil {
			return false, err
		}
		log.Debugf("Block %v (height %v) connected to the main chain",
			meta.Hash, meta.Height)
		return true, nil
	}

	// We're extending (or creating) a side chain, but the cumulative
	// work for this new side chain is not enough to make it the new chain.
	fork := b.findFork(meta)
	if !meta.betterThan(tip) {
		err := b.db.Update(func(dbTx database.Tx) error {
			if err := dbPutBlock(dbTx, &meta.Hash, raw); err != nil {
				return err
			}
			return dbPutHeaderMeta(dbTx, meta)
		})
		if err != nil {
			return false, b.storageFailure("store side chain block", err)
		}

		if fork.Hash == meta.ParentHash {
			log.Infof("FORK: Block %v (height %v) forks the chain at height "+
				"%d/block %v, but does not cause a reorganize", meta.Hash,
				meta.Height, fork.Height, fork.Hash)
		} else {
			log.Infof("EXTEND FORK: Block %v (height %v) extends a side chain "+
				"which forks the chain at height %d/block %v", meta.Hash,
				meta.Height, fork.Height, fork.Hash)
		}
		return false, nil
	}

	// We're extending (or creating) a side chain and the cumulative work
	// for this new side chain is more than the old best chain, so this side
	// chain needs to become the main chain.
	log.Infof("REORGANIZE: Block %v is causing a reorganize.", meta.Hash)
	if err := b.reorganizeTo(newBlock, flags); err != nil {
		return false, err
	}
	return true, nil
}

// reorganizeTo makes the chain ending at the provided block the active chain.
// It collects the blocks to disconnect from the tip down to the fork point and
// the blocks to connect from the fork point up to the new block.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) reorganizeTo(newBlock *pendingBlock, flags BehaviorFlags) error {
	tip := b.bestChain.tip()
	fork := b.findFork(newBlock.meta)
	if fork == nil {
		str := fmt.Sprintf("block %v does not connect to the active chain",
			newBlock.meta.Hash)
		return AssertError(str)
	}
	var detach, attach []*HeaderMeta
	for n := tip; n.Hash != fork.Hash; n = b.index.parent(n) {
		detach = append(detach, n)
	}
	for n := newBlock.meta; n.Hash != fork.Hash; n = b.index.parent(n) {
		attach = append(attach, n)
	}
	for i, j := 0, len(attach)-1; i < j; i, j = i+1, j-1 {
		attach[i], attach[j] = attach[j], attach[i]
	}
	return b.reorganizeChain(detach, attach, newBlock, flags)
}

// recoverBestChain connects the best stored header that has more work than
// the tip.  Such a header is left behind when the chain state was not moved
// after its block was stored.  Candidates that fail to connect are marked
// invalid and the next best one is tried.
//
// This function is only called while the chain is being initialized.
func (b *BlockChain) recoverBestChain() error {
	unusable := make(map[wire.BlockHash]struct{})
	for {
		tip := b.bestChain.tip()
		var best *HeaderMeta
		b.index.mtx.RLock()
		for _, meta := range b.index.index {
			if meta.Validity.KnownInvalid() || !meta.betterThan(tip) {
				continue
			}
			if _, ok := unusable[meta.Hash]; ok {
				continue
			}
			if best == nil || meta.betterThan(best) {
				best = meta
			}
		}
		b.index.mtx.RUnlock()
		if best == nil {
			return nil
		}

		// Every block between the fork point and the candidate must be
		// stored for it to connect.
		var newBlock *pendingBlock
		fork := b.findFork(best)
		err := b.db.View(func(dbTx database.Tx) error {
			for n := best; fork != nil && n.Hash != fork.Hash; n = b.index.parent(n) {
				ok, err := dbHasBlock(dbTx, &n.Hash)
				if err != nil || !ok {
					return err
				}
			}
			pb, err := loadPendingBlock(dbTx, best)
			if err != nil {
				return err
			}
			pb.raw, err = dbFetchBlock(dbTx, &best.Hash)
			if err != nil {
				return err
			}
			newBlock = pb
			return nil
		})
		if err != nil {
			return err
		}
		if fork == nil || newBlock == nil {
			log.Warnf("Unable to recover block %v (height %d): missing "+
				"stored blocks", best.Hash, best.Height)
			unusable[best.Hash] = struct{}{}
			continue
		}

		log.Infof("Recovering best chain tip %v (height %d)", best.Hash,
			best.Height)
		err = b.reorganizeTo(newBlock, BFNone)
		if err != nil && isFatal(err) {
			return err
		}
		if err != nil {
			log.Warnf("Recovered block %v failed to connect: %v",
				best.Hash, err)
		}
	}
}

// pendingBlock is a block involved in a chain reorganization.  The raw bytes
// are only set for the block being processed, which is not stored yet.
type pendingBlock struct {
	meta  *HeaderMeta
	block *wire.MsgBlock
	raw   []byte
	undo  *UndoRecord
}

// loadPendingBlock fetches and decodes a stored block.
func loadPendingBlock(dbTx database.Tx, meta *HeaderMeta) (*pendingBlock, error) {
	raw, err := dbFetchBlock(dbTx, &meta.Hash)
	if err != nil {
		return nil, err
	}
	block, err := wire.DecodeBlock(raw)
	if err != nil {
		str := fmt.Sprintf("stored block %s is corrupt: %v", meta.Hash, err)
		return nil, database.MakeError(database.ErrCorruption, str, err)
	}
	return &pendingBlock{meta: meta, block: block}, nil
}

// connectBlock validates the block against the view and applies it.  The view
// is left in an unspecified state on failure and must be discarded.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) connectBlock(view *UtxoViewpoint, pb *pendingBlock, flags BehaviorFlags) error {
	height := pb.meta.Height
	err := checkTransactionsContext(pb.block, height, b.chainParams)
	if err != nil {
		return err
	}
	undo, err := view.ApplyBlock(pb.block, height)
	if err != nil {
		return err
	}
	err = b.checkConnectBlock(pb.block, height, undo, b.isTrusted(height, flags))
	if err != nil {
		return err
	}
	pb.undo = undo
	return nil
}

// reorganizeChain disconnects the detach blocks from the tip down and then
// connects the attach blocks from the fork point up, making the last attach
// block the new tip.  An empty detach list simply extends the chain.
//
// Every change is staged in a view, so nothing is written until all blocks
// connected.  When a block fails to connect, it is marked invalid along with
// its descendants, the view is discarded and the previous tip remains.  The
// failure is wrapped in ErrReorgFailed when blocks were to be disconnected.
//
// The changes are committed in two database transactions.  The first stores
// the new block along with the undo records of every connected block.  The
// second updates the utxo set, the active chain and the chain state.  The
// previous tip remains intact when the second one never happens.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) reorganizeChain(detach, attach []*HeaderMeta, newBlock *pendingBlock, flags BehaviorFlags) error {
	// Load every block involved other than the new one.
	var detachBlocks []*pendingBlock
	attachBlocks := make([]*pendingBlock, len(attach))
	err := b.db.View(func(dbTx database.Tx) error {
		for _, meta := range detach {
			pb, err := loadPendingBlock(dbTx, meta)
			if err != nil {
				return err
			}
			pb.undo, err = dbFetchUndoRecord(dbTx, meta)
			if err != nil {
				return err
			}
			detachBlocks = append(detachBlocks, pb)
		}
		for i, meta := range attach {
			if meta.Hash == newBlock.meta.Hash {
				attachBlocks[i] = newBlock
				continue
			}
			pb, err := loadPendingBlock(dbTx, meta)
			if err != nil {
				return err
			}
			attachBlocks[i] = pb
		}
		return nil
	})
	if err != nil {
		return b.storageFailure("load reorganize blocks", err)
	}

	// Disconnect the old blocks from the tip down.
	view := newUtxoViewpointDB(b.db)
	totalTxns := b.totalTxns
	for _, pb := range detachBlocks {
		if err := view.UndoBlock(pb.block, pb.undo); err != nil {
			return b.storageFailure("disconnect block", err)
		}
		totalTxns -= uint64(len(pb.block.Transactions))
	}

	// Connect the new blocks from the fork point up.
	for _, pb := range attachBlocks {
		err := b.connectBlock(view, pb, flags)
		if err == nil {
			totalTxns += uint64(len(pb.block.Transactions))
			continue
		}
		if isStorageErr(err) {
			return b.storageFailure("connect block", err)
		}
		var aErr AssertError
		if errors.As(err, &aErr) {
			return err
		}

		if mErr := b.markInvalid(pb.meta); mErr != nil {
			return mErr
		}
		if len(detach) == 0 {
			return err
		}
		str := fmt.Sprintf("reorganize to block %v failed at block %v "+
			"(height %d)", newBlock.meta.Hash, pb.meta.Hash,
			pb.meta.Height)
		return ruleErrorRaw(ErrReorgFailed, str, err)
	}

	// Phase one stores the new block and the undo records.
	err = b.db.Update(func(dbTx database.Tx) error {
		err := dbPutBlock(dbTx, &newBlock.meta.Hash, newBlock.raw)
		if err != nil {
			return err
		}
		if err := dbPutHeaderMeta(dbTx, newBlock.meta); err != nil {
			return err
		}
		for _, pb := range attachBlocks {
			if err := dbPutUndoRecord(dbTx, pb.meta, pb.undo); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return b.storageFailure("store connected blocks", err)
	}

	// Phase two moves the tip.  The state lock is held until the snapshot
	// matches the database, so readers of the chain state observe either
	// the old tip or the new one along with the matching utxo set.
	oldTip := b.bestChain.tip()
	newTip := attach[len(attach)-1]
	forkHeight := attach[0].Height - 1
	b.stateLock.Lock()
	err = b.db.Update(func(dbTx database.Tx) error {
		if err := view.commit(dbTx); err != nil {
			return err
		}
		for _, pb := range detachBlocks {
			if err := dbRemoveUndoRecord(dbTx, pb.meta); err != nil {
				return err
			}
		}
		for height := newTip.Height + 1; height <= oldTip.Height; height++ {
			if err := dbRemoveMainChainHash(dbTx, height); err != nil {
				return err
			}
		}
		for _, meta := range attach {
			err := dbPutMainChainHash(dbTx, meta.Height, &meta.Hash)
			if err != nil {
				return err
			}
			connected := *meta
			connected.Validity = ValidityContextual
			if err := dbPutHeaderMeta(dbTx, &connected); err != nil {
				return err
			}
		}
		return dbPutBestState(dbTx, &bestChainState{
			hash:        newTip.Hash,
			height:      newTip.Height,
			workSum:     newTip.WorkSum,
			nextOrderID: b.index.nextID(),
			totalTxns:   totalTxns,
		})
	})
	if err != nil {
		b.stateLock.Unlock()
		return b.storageFailure("commit chain state", err)
	}

	// The database now reflects the new tip, so update the memory state to
	// match.
	for _, meta := range attach {
		b.index.setValidity(meta, ValidityContextual)
	}
	b.bestChain.setTip(forkHeight, attach)
	b.totalTxns = totalTxns
	b.stateSnapshot = b.calcBestState(uint64(len(newBlock.block.Transactions)))
	b.stateLock.Unlock()

	if len(detach) > 0 {
		fork := b.bestChain.nodes[forkHeight]
		log.Infof("REORGANIZE: Chain forks at %v (height %v)", fork.Hash,
			fork.Height)
		log.Infof("REORGANIZE: Old best chain tip was %v (height %v)",
			oldTip.Hash, oldTip.Height)
		log.Infof("REORGANIZE: New best chain tip is %v (height %v)",
			newTip.Hash, newTip.Height)
	}
	return nil
}

// calcBestState returns a best state snapshot describing the tip of the active
// chain.
//
// This function MUST be called with the chain lock held (for reads).
func (b *BlockChain) calcBestState(blockTxns uint64) *BestState {
	tip := b.bestChain.tip()
	medianTime := b.index.calcPastMedianTime(tip, b.chainParams.MedianTimeBlocks)
	return newBestState(tip, blockTxns, b.totalTxns, time.Unix(medianTime, 0))
}

// updateSnapshot replaces the best state snapshot with one describing the tip
// of the active chain.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) updateSnapshot(blockTxns uint64) {
	state := b.calcBestState(blockTxns)

	b.stateLock.Lock()
	b.stateSnapshot = state
	b.stateLock.Unlock()
}

// HeaderMeta returns a copy of the metadata of the header with the provided
// hash.
//
// This function is safe for concurrent access.
func (b *BlockChain) HeaderMeta(hash *wire.BlockHash) (HeaderMeta, error) {
	meta, ok := b.index.metaCopy(hash)
	if !ok {
		return HeaderMeta{}, notFoundError(hash)
	}
	return meta, nil
}

// BlockByHash returns the block with the provided hash.  Blocks that are not
// part of the main chain are returned as well as long as they are stored.
//
// This function is safe for concurrent access.
func (b *BlockChain) BlockByHash(hash *wire.BlockHash) (*wire.MsgBlock, error) {
	raw, err := b.blockStore.Get(hash)
	if err != nil {
		return nil, err
	}
	return wire.DecodeBlock(raw)
}

// HeaderByHash returns the header of the block with the provided hash.
//
// This function is safe for concurrent access.
func (b *BlockChain) HeaderByHash(hash *wire.BlockHash) (*wire.BlockHeader, error) {
	raw, err := b.blockStore.Get(hash)
	if err != nil {
		return nil, err
	}
	var header wire.BlockHeader
	if err := header.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return &header, nil
}

// BlockHashByHeight returns the hash of the block at the given height in the
// main chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) BlockHashByHeight(height int64) (*wire.BlockHash, error) {
	b.stateLock.RLock()
	defer b.stateLock.RUnlock()

	var hash wire.BlockHash
	err := b.db.View(func(dbTx database.Tx) error {
		var err error
		hash, err = dbFetchMainChainHash(dbTx, height)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

// MainChainHasBlock returns whether or not the block with the given hash is in
// the main chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) MainChainHasBlock(hash *wire.BlockHash) (bool, error) {
	meta, ok := b.index.metaCopy(hash)
	if !ok {
		return false, nil
	}
	mainHash, err := b.BlockHashByHeight(meta.Height)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return *mainHash == *hash, nil
}

// FetchUtxoEntry loads and returns the requested unspent transaction output
// from the point of view of the main chain tip.  Nil is returned when the
// output does not exist or is spent.
//
// This function is safe for concurrent access.
func (b *BlockChain) FetchUtxoEntry(outpoint wire.OutPoint) (*UtxoEntry, error) {
	entry, _, err := b.FetchUtxoEntryWithSnapshot(outpoint)
	return entry, err
}

// FetchUtxoEntryWithSnapshot is like FetchUtxoEntry but also returns the best
// state snapshot of the tip the entry was read at.  The chain may move on
// between separate calls to BestSnapshot and FetchUtxoEntry, so callers that
// need both to agree must use this instead.
//
// This function is safe for concurrent access.
func (b *BlockChain) FetchUtxoEntryWithSnapshot(outpoint wire.OutPoint) (*UtxoEntry, *BestState, error) {
	b.stateLock.RLock()
	defer b.stateLock.RUnlock()

	var entry *UtxoEntry
	err := b.db.View(func(dbTx database.Tx) error {
		var err error
		entry, err = dbFetchUtxoEntry(dbTx, &outpoint)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, b.stateSnapshot, nil
}

// IsKnownOrphan returns whether the passed hash is currently a buffered orphan.
//
// This function is safe for concurrent access.
func (b *BlockChain) IsKnownOrphan(hash *wire.BlockHash) bool {
	return b.orphans.isKnownOrphan(hash)
}

// OrphanRoot returns the head of the chain of buffered orphans that ends with
// the passed hash.  Its parent is the block that must arrive for the orphans to
// connect.
//
// This function is safe for concurrent access.
func (b *BlockChain) OrphanRoot(hash *wire.BlockHash) wire.BlockHash {
	return b.orphans.orphanRoot(hash)
}
