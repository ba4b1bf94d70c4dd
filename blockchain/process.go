// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/zecnode/zecd/wire"
)

// BehaviorFlags is a bitmask defining tweaks to the normal behavior when
// performing chain processing and consensus rules checks.
type BehaviorFlags uint32

const (
	// BFFastAdd may be set to indicate that several checks can be avoided
	// for the block since it is already known to fit into the chain due to
	// already proving it correct links into the chain up to a known
	// checkpoint.  Proof verification is skipped while utxo consistency and
	// ordering are still enforced.  This is primarily used for bulk
	// imports.
	BFFastAdd BehaviorFlags = 1 << iota

	// BFNoPoWCheck may be set to indicate the proof of work check which
	// ensures a block hashes to a value less than the required target and
	// carries a valid equihash solution will not be performed.
	BFNoPoWCheck

	// BFNoOrphanEviction may be set to indicate a block with an unknown
	// parent must be rejected with ErrOrphanBufferFull instead of evicting
	// an older orphan when the buffer is full.
	BFNoOrphanEviction

	// BFNone is a convenience value to specifically indicate no flags.
	BFNone BehaviorFlags = 0
)

// BlockOutcome is the result of connecting a block that was buffered as an
// orphan until its parent arrived.
type BlockOutcome struct {
	Hash      wire.BlockHash
	Height    int64
	MainChain bool

	// Err is nil when the block was accepted.  Otherwise it is a
	// *Rejection attributed to the peer that sent the orphan.
	Err error
}

// ProcessResult describes what happened to a block passed to ProcessBlock.
type ProcessResult struct {
	Hash wire.BlockHash

	// Orphan is set when the parent of the block is not known and the
	// block was buffered until it is.
	Orphan bool

	// MainChain is set when the block is part of the main chain after
	// processing.
	MainChain bool

	// Connected lists the previously buffered orphans processed because
	// this block supplied their parent, directly or through another
	// orphan, in processing order.
	Connected []BlockOutcome
}

// decodeBlockHash returns the hash of the header at the start of bytes that
// could not be decoded as a full block.
func decodeBlockHash(raw []byte) (wire.BlockHash, bool) {
	var header wire.BlockHeader
	if err := header.Deserialize(bytes.NewReader(raw)); err != nil {
		return wire.BlockHash{}, false
	}
	return header.BlockHash(), true
}

// isFatal returns whether the error must be returned to the caller as is
// rather than as a rejection of the block.
func isFatal(err error) bool {
	var sErr StorageError
	var aErr AssertError
	return errors.As(err, &sErr) || errors.As(err, &aErr)
}

// isPermanent returns whether the error means the block can never become
// valid, so later submissions of it are repeats.
func isPermanent(err error) bool {
	return errors.Is(err, CategoryCodec) || errors.Is(err, CategoryStructural) ||
		errors.Is(err, CategoryContextual) || errors.Is(err, CategoryReorgFailed)
}

// reject wraps the passed error in a Rejection for the peer that sent the
// block.  Storage and assertion failures are returned unchanged.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) reject(hash *wire.BlockHash, peer PeerID, repeated bool, err error) error {
	if isFatal(err) {
		return err
	}
	if isPermanent(err) && !errors.Is(err, ErrDuplicateBlock) &&
		!errors.Is(err, ErrKnownInvalid) {

		b.recentRejects.Add(hash[:])
	}
	return &Rejection{
		Peer:        peer,
		Hash:        *hash,
		Misbehaving: isMisbehavior(err),
		Repeated:    repeated,
		Err:         err,
	}
}

// maybeAcceptBlock potentially accepts a block into the block chain and, if
// accepted, returns whether or not it is on the main chain.  It performs
// several validation checks which depend on its position within the block
// chain before adding it.  The block is expected to have already gone through
// CheckBlockSanity and its parent must be known.
//
// The flags are also passed to connectBestChain.  See its documentation for
// how the flags modify its behavior.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) maybeAcceptBlock(block *wire.MsgBlock, raw []byte, parent *HeaderMeta, flags BehaviorFlags) (bool, error) {
	header := &block.Header
	hash := header.BlockHash()

	// Blocks descending from an invalid block are invalid as well.  They
	// are remembered so they are not processed again.
	if parent.Validity.KnownInvalid() {
		meta, err := b.index.InsertHeader(header, ValidityInvalidAncestor)
		if err != nil {
			return false, err
		}
		if err := b.persistMetas(meta); err != nil {
			return false, err
		}
		str := fmt.Sprintf("previous block %s is known to be invalid",
			parent.Hash)
		return false, ruleError(ErrInvalidAncestorBlock, str)
	}

	meta, err := b.index.InsertHeader(header, ValidityStructural)
	if err != nil {
		return false, err
	}

	// The block must pass all of the validation rules which depend on its
	// position within the chain.
	if err := b.checkBlockHeaderContext(header, parent); err != nil {
		var aErr AssertError
		if errors.As(err, &aErr) {
			return false, err
		}
		b.index.setValidity(meta, ValidityInvalid)
		if pErr := b.persistMetas(meta); pErr != nil {
			return false, pErr
		}
		return false, err
	}

	// Connect the passed block to the chain while respecting proper chain
	// selection according to the chain with the most proof of work.  This
	// also handles validation of the transaction scripts.
	mainChain, err := b.connectBestChain(meta, block, raw, flags)
	if err != nil {
		return false, err
	}

	log.Debugf("Accepted block %v", hash)
	return mainChain, nil
}

// processOrphans determines if there are any orphans which depend on the passed
// block hash (they are no longer orphans if true) and potentially accepts them.
// It repeats the process for the newly accepted blocks (to detect further
// orphans which may no longer be orphans) until there are no more.  Orphans
// whose parent turned out to be invalid are processed as well so they are
// recorded as such.
//
// The flags do not modify the behavior of this function directly, however they
// are needed to pass along to maybeAcceptBlock.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) processOrphans(hash *wire.BlockHash, flags BehaviorFlags) ([]BlockOutcome, error) {
	var outcomes []BlockOutcome

	// Start with processing at least the passed hash.  Leave a little room
	// for additional orphan blocks that need to be processed without
	// needing to grow the array in the common case.
	processHashes := make([]wire.BlockHash, 0, 10)
	processHashes = append(processHashes, *hash)
	for len(processHashes) > 0 {
		// Pop the first hash to process from the slice.
		processHash := processHashes[0]
		processHashes = processHashes[1:]

		parent := b.index.lookup(&processHash)
		if parent == nil {
			continue
		}

		// Look up all orphans that are parented by the block we just
		// accepted.
		for _, orphan := range b.orphans.takeChildren(&processHash) {
			orphanHash := orphan.block.BlockHash()
			log.Tracef("Processing orphan block %v", orphanHash)

			outcome := BlockOutcome{Hash: orphanHash, Height: parent.Height + 1}
			mainChain, err := b.maybeAcceptBlock(orphan.block, orphan.raw,
				parent, flags)
			if err != nil {
				if isFatal(err) {
					return outcomes, err
				}
				outcome.Err = b.reject(&orphanHash, orphan.peer, false, err)
			}
			outcome.MainChain = mainChain
			outcomes = append(outcomes, outcome)

			// Add this block to the list of blocks to process so any
			// orphan blocks that depend on this block are handled too.
			processHashes = append(processHashes, orphanHash)
		}
	}
	return outcomes, nil
}

// ProcessBlock is the main workhorse for handling insertion of new blocks into
// the block chain.  It includes functionality such as rejecting duplicate
// blocks, ensuring blocks follow all rules, orphan handling, and insertion into
// the block chain along with best chain selection and reorganization.
//
// A block that is not accepted is reported as a *Rejection naming the peer
// that sent it, except for storage and assertion failures which are returned
// unchanged.  Once a storage failure occurs every later call returns it.
//
// When the parent of the block is not known the block is buffered and the
// result has Orphan set.  Accepting a block also processes every buffered
// orphan that descends from it, reporting each in the Connected field of the
// result.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessBlock(raw []byte, peer PeerID, flags BehaviorFlags) (*ProcessResult, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	if b.fatalErr != nil {
		return nil, b.fatalErr
	}

	start := time.Now()
	block, err := wire.DecodeBlock(raw)
	if err != nil {
		hash, _ := decodeBlockHash(raw)
		str := fmt.Sprintf("unable to decode block: %v", err)
		err := ruleErrorRaw(ErrMalformedBlock, str, err)
		return nil, b.reject(&hash, peer, false, err)
	}
	blockHash := block.BlockHash()
	log.Tracef("Processing block %v", blockHash)

	// The filter may report false positives, so it only flags the
	// rejection and never causes one.
	repeated := b.recentRejects.Contains(blockHash[:])

	// The block must not already exist in the main chain or side chains.
	if meta, ok := b.index.metaCopy(&blockHash); ok {
		if meta.Validity.KnownInvalid() {
			str := fmt.Sprintf("block %v is known to be invalid", blockHash)
			return nil, b.reject(&blockHash, peer, true,
				ruleError(ErrKnownInvalid, str))
		}
		str := fmt.Sprintf("already have block %v", blockHash)
		return nil, b.reject(&blockHash, peer, repeated,
			ruleError(ErrDuplicateBlock, str))
	}

	// The block must not already exist as an orphan.
	if b.orphans.isKnownOrphan(&blockHash) {
		str := fmt.Sprintf("already have block (orphan) %v", blockHash)
		return nil, b.reject(&blockHash, peer, repeated,
			ruleError(ErrDuplicateBlock, str))
	}

	// Perform preliminary sanity checks on the block and its transactions.
	err = CheckBlockSanity(block, len(raw), b.chainParams, flags)
	if err != nil {
		return nil, b.reject(&blockHash, peer, repeated, err)
	}

	// Handle orphan blocks.
	result := &ProcessResult{Hash: blockHash}
	prevHash := &block.Header.PrevBlock
	parent := b.index.lookup(prevHash)
	if parent == nil {
		orphan := &orphanBlock{
			block:    block,
			raw:      raw,
			peer:     peer,
			received: start,
		}
		noEvict := flags&BFNoOrphanEviction == BFNoOrphanEviction
		if err := b.orphans.addOrphanBlock(orphan, noEvict); err != nil {
			return nil, b.reject(&blockHash, peer, repeated, err)
		}
		log.Debugf("Adding orphan block %v with parent %v", blockHash,
			prevHash)
		result.Orphan = true
		return result, nil
	}

	// The block has passed all context independent checks and appears sane
	// enough to potentially accept it into the block chain.
	mainChain, err := b.maybeAcceptBlock(block, raw, parent, flags)
	if err != nil {
		// Orphans waiting on a block that was recorded as invalid are
		// recorded as such too.
		if !isFatal(err) && b.index.lookup(&blockHash) != nil {
			if _, oErr := b.processOrphans(&blockHash, flags); oErr != nil {
				return nil, oErr
			}
		}
		return nil, b.reject(&blockHash, peer, repeated, err)
	}
	result.MainChain = mainChain

	// Accept any orphan blocks that depend on this block (they are no
	// longer orphans) and repeat for those accepted blocks until there are
	// no more.
	result.Connected, err = b.processOrphans(&blockHash, flags)
	if err != nil {
		return nil, err
	}

	log.Debugf("Block %v (height %v) finished processing in %s", blockHash,
		parent.Height+1, time.Since(start))
	return result, nil
}
