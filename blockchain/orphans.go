// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/container/lru"
	"github.com/zecnode/zecd/wire"
)

// orphanBlock represents a block that we don't yet have the parent for.  The
// raw bytes are kept so the block can be stored unchanged once its parent
// arrives.
type orphanBlock struct {
	block    *wire.MsgBlock
	raw      []byte
	peer     PeerID
	received time.Time
}

// orphanPool is a bounded buffer of blocks whose parents are not known.  When
// the buffer is full the block received first is evicted to make room.
type orphanPool struct {
	mtx         sync.Mutex
	capacity    int
	orphans     *lru.Map[wire.BlockHash, *orphanBlock]
	prevOrphans map[wire.BlockHash][]wire.BlockHash
}

// newOrphanPool returns an empty orphan pool that holds at most capacity
// blocks.
func newOrphanPool(capacity int) *orphanPool {
	if capacity < 0 {
		capacity = 0
	}
	return &orphanPool{
		capacity:    capacity,
		orphans:     lru.NewMap[wire.BlockHash, *orphanBlock](uint32(capacity)),
		prevOrphans: make(map[wire.BlockHash][]wire.BlockHash),
	}
}

// isKnownOrphan returns whether the passed hash is currently a known orphan.
//
// This function is safe for concurrent access.
func (p *orphanPool) isKnownOrphan(hash *wire.BlockHash) bool {
	return p.orphans.Exists(*hash)
}

// count returns the number of buffered orphans.
//
// This function is safe for concurrent access.
func (p *orphanPool) count() int {
	return int(p.orphans.Len())
}

// removeOrphanBlock removes the passed orphan block from the orphan pool and
// previous orphan index.
//
// This function MUST be called with the pool lock held (for writes).
func (p *orphanPool) removeOrphanBlock(hash *wire.BlockHash, prevHash *wire.BlockHash) {
	p.orphans.Delete(*hash)

	// Remove the reference from the previous orphan index too.  An indexing
	// for loop is intentionally used over a range here as range does not
	// reevaluate the slice on each iteration nor does it adjust the index
	// for the modified slice.
	orphans := p.prevOrphans[*prevHash]
	for i := 0; i < len(orphans); i++ {
		if orphans[i] == *hash {
			copy(orphans[i:], orphans[i+1:])
			orphans = orphans[:len(orphans)-1]
			i--
		}
	}

	// Remove the map entry altogether if there are no longer any orphans
	// which depend on the parent hash.
	if len(orphans) == 0 {
		delete(p.prevOrphans, *prevHash)
		return
	}
	p.prevOrphans[*prevHash] = orphans
}

// addOrphanBlock adds the passed block to the orphan pool.  When the pool is
// full the oldest orphan is evicted first unless noEvict is set, in which case
// ErrOrphanBufferFull is returned.  A pool with no capacity always fails.
//
// This function is safe for concurrent access.
func (p *orphanPool) addOrphanBlock(orphan *orphanBlock, noEvict bool) error {
	hash := orphan.block.BlockHash()

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.capacity == 0 {
		str := fmt.Sprintf("unable to buffer orphan block %s: orphan "+
			"buffer disabled", hash)
		return ruleError(ErrOrphanBufferFull, str)
	}
	if p.count() >= p.capacity {
		if noEvict {
			str := fmt.Sprintf("unable to buffer orphan block %s: orphan "+
				"buffer is full (%d blocks)", hash, p.capacity)
			return ruleError(ErrOrphanBufferFull, str)
		}

		// Nothing ever promotes an orphan in the map, so the least
		// recently used key is the orphan received first.
		oldestHash := p.orphans.Keys()[0]
		if oldest, ok := p.orphans.Peek(oldestHash); ok {
			log.Tracef("Evicting orphan block %s received from %q",
				oldestHash, oldest.peer)
			p.removeOrphanBlock(&oldestHash, &oldest.block.Header.PrevBlock)
		}
	}

	p.orphans.Put(hash, orphan)
	prevHash := orphan.block.Header.PrevBlock
	p.prevOrphans[prevHash] = append(p.prevOrphans[prevHash], hash)
	log.Tracef("Buffered orphan block %s with parent %s (total %d)", hash,
		prevHash, p.count())
	return nil
}

// takeChildren removes and returns every orphan whose parent is the passed
// hash in the order they were received.
//
// This function is safe for concurrent access.
func (p *orphanPool) takeChildren(parentHash *wire.BlockHash) []*orphanBlock {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	hashes := append([]wire.BlockHash(nil), p.prevOrphans[*parentHash]...)
	children := make([]*orphanBlock, 0, len(hashes))
	for i := range hashes {
		orphan, ok := p.orphans.Peek(hashes[i])
		if !ok {
			continue
		}
		p.removeOrphanBlock(&hashes[i], parentHash)
		children = append(children, orphan)
	}
	return children
}

// orphanRoot returns the hash of the most distant ancestor of the passed
// orphan that is still an orphan.  It is the block the caller needs next in
// order to connect the orphan.
//
// This function is safe for concurrent access.
func (p *orphanPool) orphanRoot(hash *wire.BlockHash) wire.BlockHash {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	orphanRoot := *hash
	prevHash := *hash
	for {
		orphan, ok := p.orphans.Peek(prevHash)
		if !ok {
			break
		}
		orphanRoot = prevHash
		prevHash = orphan.block.Header.PrevBlock
	}
	return orphanRoot
}
