// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/math/uint256"
	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/internal/primitives"
	"github.com/zecnode/zecd/wire"
)

var (
	// blocksBucketName is the name of the db bucket used to house the raw
	// bytes of every stored block keyed by block hash.
	blocksBucketName = []byte("blocks")

	// blockIndexBucketName is the name of the db bucket used to house the
	// header metadata of every known block keyed by block hash.
	blockIndexBucketName = []byte("blockidx")

	// mainChainBucketName is the name of the db bucket used to house the
	// hash of every block of the active chain keyed by big endian height.
	mainChainBucketName = []byte("mainchain")

	// utxoSetBucketName is the name of the db bucket used to house the
	// unspent transaction output set.
	utxoSetBucketName = []byte("utxoset")

	// undoBucketName is the name of the db bucket used to house the undo
	// records of connected blocks keyed by height and hash.
	undoBucketName = []byte("undo")

	// chainStateKeyName is the name of the db key used to store the best
	// chain state.
	chainStateKeyName = []byte("chainstate")
)

// bucket returns the named bucket of the metadata bucket.  Every bucket is
// created when the chain state is initialized, so a missing bucket indicates
// corruption.
func bucket(dbTx database.Tx, name []byte) (database.Bucket, error) {
	b := dbTx.Metadata().Bucket(name)
	if b == nil {
		str := fmt.Sprintf("bucket %q does not exist", name)
		return nil, database.MakeError(database.ErrCorruption, str, nil)
	}
	return b, nil
}

// -----------------------------------------------------------------------------
// The header metadata is stored in the block index bucket keyed by block hash.
//
// The serialized format is:
//
//   <parent hash><height><timestamp><bits><work sum><validity><order id>
//
//   Field        Type              Size
//   parent hash  chainhash.Hash    32
//   height       uint32            4
//   timestamp    uint32            4
//   bits         uint32            4
//   work sum     uint256 (BE)      32
//   validity     uint8             1
//   order id     uint64            8
//
// All integers except the work sum are little endian.
// -----------------------------------------------------------------------------

// headerMetaSize is the size of serialized header metadata.
const headerMetaSize = wire.HashSize + 4 + 4 + 4 + 32 + 1 + 8

// serializeHeaderMeta returns the metadata serialized to a format that is
// suitable for long-term storage.
func serializeHeaderMeta(meta *HeaderMeta) []byte {
	serialized := make([]byte, headerMetaSize)
	offset := copy(serialized, meta.ParentHash[:])
	binary.LittleEndian.PutUint32(serialized[offset:], uint32(meta.Height))
	offset += 4
	binary.LittleEndian.PutUint32(serialized[offset:], uint32(meta.Timestamp))
	offset += 4
	binary.LittleEndian.PutUint32(serialized[offset:], meta.Bits)
	offset += 4
	meta.WorkSum.PutBytesUnchecked(serialized[offset:])
	offset += 32
	serialized[offset] = byte(meta.Validity)
	offset++
	binary.LittleEndian.PutUint64(serialized[offset:], meta.OrderID)
	return serialized
}

// deserializeHeaderMeta decodes header metadata stored under the provided
// hash.
func deserializeHeaderMeta(hash *wire.BlockHash, serialized []byte) (*HeaderMeta, error) {
	if len(serialized) != headerMetaSize {
		str := fmt.Sprintf("header metadata for %s is %d bytes instead "+
			"of %d", hash, len(serialized), headerMetaSize)
		return nil, errDeserialize(str)
	}

	meta := &HeaderMeta{Hash: *hash}
	offset := copy(meta.ParentHash[:], serialized)
	meta.Height = int64(binary.LittleEndian.Uint32(serialized[offset:]))
	offset += 4
	meta.Timestamp = int64(binary.LittleEndian.Uint32(serialized[offset:]))
	offset += 4
	meta.Bits = binary.LittleEndian.Uint32(serialized[offset:])
	offset += 4
	meta.WorkSum.SetByteSlice(serialized[offset : offset+32])
	offset += 32
	meta.Validity = ValidityState(serialized[offset])
	offset++
	meta.OrderID = binary.LittleEndian.Uint64(serialized[offset:])
	if _, ok := validityStrings[meta.Validity]; !ok {
		str := fmt.Sprintf("header metadata for %s has unknown validity "+
			"%d", hash, meta.Validity)
		return nil, errDeserialize(str)
	}
	return meta, nil
}

// dbPutHeaderMeta stores the metadata of a header.
func dbPutHeaderMeta(dbTx database.Tx, meta *HeaderMeta) error {
	b, err := bucket(dbTx, blockIndexBucketName)
	if err != nil {
		return err
	}
	return b.Put(meta.Hash[:], serializeHeaderMeta(meta))
}

// dbRemoveHeaderMeta removes the metadata of a header.
func dbRemoveHeaderMeta(dbTx database.Tx, hash *wire.BlockHash) error {
	b, err := bucket(dbTx, blockIndexBucketName)
	if err != nil {
		return err
	}
	return b.Delete(hash[:])
}

// dbLoadHeaderMetas returns the metadata of every stored header.
func dbLoadHeaderMetas(dbTx database.Tx) ([]*HeaderMeta, error) {
	b, err := bucket(dbTx, blockIndexBucketName)
	if err != nil {
		return nil, err
	}
	var metas []*HeaderMeta
	err = b.ForEach(func(k, v []byte) error {
		if len(k) != wire.HashSize {
			return errDeserialize(fmt.Sprintf("block index key %x is "+
				"malformed", k))
		}
		var hash wire.BlockHash
		copy(hash[:], k)
		meta, err := deserializeHeaderMeta(&hash, v)
		if err != nil {
			return err
		}
		metas = append(metas, meta)
		return nil
	})
	return metas, err
}

// -----------------------------------------------------------------------------
// The active chain is stored in the main chain bucket.  The key is the big
// endian height and the value is the block hash.
// -----------------------------------------------------------------------------

// heightKey returns the main chain key for the height.
func heightKey(height int64) []byte {
	var key [4]byte
	binary.BigEndian.PutUint32(key[:], uint32(height))
	return key[:]
}

// dbPutMainChainHash records the block hash as the active block at its height.
func dbPutMainChainHash(dbTx database.Tx, height int64, hash *wire.BlockHash) error {
	b, err := bucket(dbTx, mainChainBucketName)
	if err != nil {
		return err
	}
	return b.Put(heightKey(height), hash[:])
}

// dbRemoveMainChainHash removes the active block at the height.
func dbRemoveMainChainHash(dbTx database.Tx, height int64) error {
	b, err := bucket(dbTx, mainChainBucketName)
	if err != nil {
		return err
	}
	return b.Delete(heightKey(height))
}

// dbFetchMainChainHash returns the hash of the active block at the height.  A
// ContextError with ErrNotFound is returned when the active chain is shorter.
func dbFetchMainChainHash(dbTx database.Tx, height int64) (wire.BlockHash, error) {
	b, err := bucket(dbTx, mainChainBucketName)
	if err != nil {
		return wire.BlockHash{}, err
	}
	v, err := b.Get(heightKey(height))
	if err != nil {
		return wire.BlockHash{}, err
	}
	if v == nil {
		str := fmt.Sprintf("no block at height %d exists", height)
		return wire.BlockHash{}, contextError(ErrNotFound, str)
	}
	if len(v) != wire.HashSize {
		return wire.BlockHash{}, errDeserialize(fmt.Sprintf("main chain "+
			"entry for height %d is malformed", height))
	}
	var hash wire.BlockHash
	copy(hash[:], v)
	return hash, nil
}

// dbFetchUtxoEntry returns the unspent entry for the outpoint or nil when the
// outpoint is not in the set.
func dbFetchUtxoEntry(dbTx database.Tx, outpoint *wire.OutPoint) (*UtxoEntry, error) {
	b, err := bucket(dbTx, utxoSetBucketName)
	if err != nil {
		return nil, err
	}
	serialized, err := b.Get(outpointKey(outpoint))
	if err != nil || serialized == nil {
		return nil, err
	}
	entry, err := deserializeUtxoEntry(serialized)
	if err != nil {
		str := fmt.Sprintf("corrupt utxo entry for %v: %v", outpoint, err)
		return nil, database.MakeError(database.ErrCorruption, str, nil)
	}
	return entry, nil
}

// dbPutUtxoEntry stores the unspent entry for the outpoint.
func dbPutUtxoEntry(dbTx database.Tx, outpoint *wire.OutPoint, entry *UtxoEntry) error {
	b, err := bucket(dbTx, utxoSetBucketName)
	if err != nil {
		return err
	}
	return b.Put(outpointKey(outpoint), serializeUtxoEntry(entry))
}

// dbRemoveUtxoEntry removes the entry for the outpoint from the set.
func dbRemoveUtxoEntry(dbTx database.Tx, outpoint *wire.OutPoint) error {
	b, err := bucket(dbTx, utxoSetBucketName)
	if err != nil {
		return err
	}
	return b.Delete(outpointKey(outpoint))
}

// dbPutUndoRecord stores the undo record of a block.
func dbPutUndoRecord(dbTx database.Tx, meta *HeaderMeta, undo *UndoRecord) error {
	b, err := bucket(dbTx, undoBucketName)
	if err != nil {
		return err
	}
	return b.Put(undoKey(meta.Height, &meta.Hash), serializeUndoRecord(undo))
}

// dbFetchUndoRecord returns the undo record of a block.  A missing record is
// reported as corruption since every connected block has one.
func dbFetchUndoRecord(dbTx database.Tx, meta *HeaderMeta) (*UndoRecord, error) {
	b, err := bucket(dbTx, undoBucketName)
	if err != nil {
		return nil, err
	}
	serialized, err := b.Get(undoKey(meta.Height, &meta.Hash))
	if err != nil {
		return nil, err
	}
	if serialized == nil {
		str := fmt.Sprintf("missing undo record for block %s (height %d)",
			meta.Hash, meta.Height)
		return nil, database.MakeError(database.ErrCorruption, str, nil)
	}
	undo, err := deserializeUndoRecord(serialized)
	if err != nil {
		str := fmt.Sprintf("corrupt undo record for block %s: %v",
			meta.Hash, err)
		return nil, database.MakeError(database.ErrCorruption, str, nil)
	}
	return undo, nil
}

// dbRemoveUndoRecord removes the undo record of a block.
func dbRemoveUndoRecord(dbTx database.Tx, meta *HeaderMeta) error {
	b, err := bucket(dbTx, undoBucketName)
	if err != nil {
		return err
	}
	return b.Delete(undoKey(meta.Height, &meta.Hash))
}

// -----------------------------------------------------------------------------
// The best chain state consists of the best block hash and height, the total
// work of the best chain, the next header insertion id, and the total number
// of transactions up to and including the best block.
//
// The serialized format is:
//
//   <block hash><block height><work sum><next order id><total txns>
//
//   Field          Type             Size
//   block hash     chainhash.Hash   32
//   block height   uint32           4
//   work sum       uint256 (BE)     32
//   next order id  uint64           8
//   total txns     uint64           8
// -----------------------------------------------------------------------------

// bestChainState represents the data to be stored the database for the current
// best chain state.
type bestChainState struct {
	hash        wire.BlockHash
	height      int64
	workSum     uint256.Uint256
	nextOrderID uint64
	totalTxns   uint64
}

// chainStateSize is the size of the serialized best chain state.
const chainStateSize = wire.HashSize + 4 + 32 + 8 + 8

// serializeBestChainState returns the serialization of the passed block best
// chain state.  This is data to be stored in the chain state bucket.
func serializeBestChainState(state *bestChainState) []byte {
	serialized := make([]byte, chainStateSize)
	offset := copy(serialized, state.hash[:])
	binary.LittleEndian.PutUint32(serialized[offset:], uint32(state.height))
	offset += 4
	state.workSum.PutBytesUnchecked(serialized[offset:])
	offset += 32
	binary.LittleEndian.PutUint64(serialized[offset:], state.nextOrderID)
	offset += 8
	binary.LittleEndian.PutUint64(serialized[offset:], state.totalTxns)
	return serialized
}

// deserializeBestChainState deserializes the passed serialized best chain
// state.
func deserializeBestChainState(serialized []byte) (*bestChainState, error) {
	if len(serialized) != chainStateSize {
		return nil, errDeserialize("corrupt best chain state")
	}
	state := new(bestChainState)
	offset := copy(state.hash[:], serialized)
	state.height = int64(binary.LittleEndian.Uint32(serialized[offset:]))
	offset += 4
	state.workSum.SetByteSlice(serialized[offset : offset+32])
	offset += 32
	state.nextOrderID = binary.LittleEndian.Uint64(serialized[offset:])
	offset += 8
	state.totalTxns = binary.LittleEndian.Uint64(serialized[offset:])
	return state, nil
}

// dbPutBestState stores the best chain state.
func dbPutBestState(dbTx database.Tx, state *bestChainState) error {
	return dbTx.Metadata().Put(chainStateKeyName, serializeBestChainState(state))
}

// dbFetchBestState returns the stored best chain state or nil when the chain
// state has not been initialized.
func dbFetchBestState(dbTx database.Tx) (*bestChainState, error) {
	serialized, err := dbTx.Metadata().Get(chainStateKeyName)
	if err != nil || serialized == nil {
		return nil, err
	}
	state, err := deserializeBestChainState(serialized)
	if err != nil {
		return nil, database.MakeError(database.ErrCorruption, err.Error(),
			nil)
	}
	return state, nil
}

// dbCreateBuckets creates every bucket used by the chain.
func dbCreateBuckets(dbTx database.Tx) error {
	meta := dbTx.Metadata()
	for _, name := range [][]byte{blocksBucketName, blockIndexBucketName,
		mainChainBucketName, utxoSetBucketName, undoBucketName} {

		if _, err := meta.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// createChainState initializes both the database and the chain state to the
// genesis block.  The outputs of the genesis coinbase are not added to the
// utxo set, so they can never be spent.
func (b *BlockChain) createChainState(dbTx database.Tx) (*bestChainState, *HeaderMeta, error) {
	genesis := b.chainParams.GenesisBlock
	hash := genesis.BlockHash()
	if hash != b.chainParams.GenesisHash {
		str := fmt.Sprintf("genesis block hash %s does not match the "+
			"network genesis hash %s", hash, b.chainParams.GenesisHash)
		return nil, nil, AssertError(str)
	}

	meta := &HeaderMeta{
		Hash:      hash,
		Height:    0,
		Timestamp: genesis.Header.Timestamp.Unix(),
		Bits:      genesis.Header.Bits,
		WorkSum:   primitives.CalcWork(genesis.Header.Bits),
		Validity:  ValidityContextual,
		OrderID:   0,
	}
	state := &bestChainState{
		hash:        hash,
		height:      0,
		workSum:     meta.WorkSum,
		nextOrderID: 1,
		totalTxns:   uint64(len(genesis.Transactions)),
	}

	if err := dbPutBlock(dbTx, &hash, genesis.Bytes()); err != nil {
		return nil, nil, err
	}
	if err := dbPutHeaderMeta(dbTx, meta); err != nil {
		return nil, nil, err
	}
	if err := dbPutMainChainHash(dbTx, 0, &hash); err != nil {
		return nil, nil, err
	}
	if err := dbPutBestState(dbTx, state); err != nil {
		return nil, nil, err
	}
	return state, meta, nil
}

// initChainState attempts to load and initialize the chain state from the
// database.  When the db does not yet contain any chain state, both it and the
// chain state are initialized to the genesis block.
func (b *BlockChain) initChainState() error {
	var state *bestChainState
	var metas []*HeaderMeta
	var tipTxns uint64
	err := b.db.Update(func(dbTx database.Tx) error {
		var err error
		state, err = dbFetchBestState(dbTx)
		if err != nil {
			return err
		}
		if state == nil {
			log.Infof("Initializing chain state to the genesis block")
			var genesisMeta *HeaderMeta
			state, genesisMeta, err = b.createChainState(dbTx)
			if err != nil {
				return err
			}
			metas = []*HeaderMeta{genesisMeta}
			tipTxns = state.totalTxns
			return nil
		}

		metas, err = dbLoadHeaderMetas(dbTx)
		if err != nil {
			return err
		}
		raw, err := dbFetchBlock(dbTx, &state.hash)
		if err != nil {
			return err
		}
		tip, err := wire.DecodeBlock(raw)
		if err != nil {
			str := fmt.Sprintf("stored tip block %s is corrupt: %v",
				state.hash, err)
			return database.MakeError(database.ErrCorruption, str, err)
		}
		tipTxns = uint64(len(tip.Transactions))
		return nil
	})
	if err != nil {
		return err
	}

	// Load every known header into the index.
	b.index.mtx.Lock()
	for _, meta := range metas {
		b.index.addMeta(meta)
	}
	if state.nextOrderID > b.index.nextOrderID {
		b.index.nextOrderID = state.nextOrderID
	}
	b.index.mtx.Unlock()

	// Reconstruct the active chain by following the parents of the tip.
	tip := b.index.lookup(&state.hash)
	if tip == nil {
		str := fmt.Sprintf("chain state tip %s is not in the block index",
			state.hash)
		return database.MakeError(database.ErrCorruption, str, nil)
	}
	nodes := make([]*HeaderMeta, tip.Height+1)
	for iter := tip; iter != nil; iter = b.index.parent(iter) {
		nodes[iter.Height] = iter
	}
	for height, meta := range nodes {
		if meta == nil {
			str := fmt.Sprintf("block index is missing the main chain "+
				"header at height %d", height)
			return database.MakeError(database.ErrCorruption, str, nil)
		}
	}
	if nodes[0].Hash != b.chainParams.GenesisHash {
		str := fmt.Sprintf("stored chain starts at %s instead of the "+
			"network genesis block %s", nodes[0].Hash,
			b.chainParams.GenesisHash)
		return database.MakeError(database.ErrInvalid, str, nil)
	}

	b.bestChain.nodes = nodes
	b.totalTxns = state.totalTxns
	b.updateSnapshot(tipTxns)

	// Connect any stored chain with more work than the tip.  This finishes
	// a reorganization that stored its blocks but never moved the tip.
	return b.recoverBestChain()
}
