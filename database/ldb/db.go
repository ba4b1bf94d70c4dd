// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2020 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ldb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
)

// The database is a single flat leveldb keyspace.  Every bucket is assigned a
// 4-byte id and the keys of the pairs it holds are prefixed with that id.  The
// parent/child relationship of buckets is kept in a separate index:
//
//	<bucket index prefix><parent bucket id><bucket name> -> <child bucket id>
//
// Bookkeeping values live under an id that is never assigned to a bucket.
var (
	// metadataBucketID is the id of the top-level metadata bucket.
	metadataBucketID = [4]byte{}

	// internalBucketID prefixes the driver's bookkeeping keys.
	internalBucketID = [4]byte{0xff, 0xff, 0xff, 0xff}

	// bucketIndexPrefix is the prefix used for all entries in the bucket
	// index.
	bucketIndexPrefix = []byte("bidx")

	// curBucketIDKeyName is the name of the key used to keep track of the
	// current bucket ID counter.
	curBucketIDKeyName = []byte("curbucketid")

	// networkKeyName is the name of the key that holds the network the
	// database was created for.
	networkKeyName = []byte("network")
)

// bucketizedKey returns the actual key to use for storing and retrieving a key
// for the provided bucket ID.
func bucketizedKey(bucketID [4]byte, key []byte) []byte {
	bKey := make([]byte, 4+len(key))
	copy(bKey, bucketID[:])
	copy(bKey[4:], key)
	return bKey
}

// bucketIndexKey returns the actual key to use for storing and retrieving a
// child bucket in the bucket index.
func bucketIndexKey(parentID [4]byte, key []byte) []byte {
	indexKey := make([]byte, len(bucketIndexPrefix)+4+len(key))
	copy(indexKey, bucketIndexPrefix)
	copy(indexKey[len(bucketIndexPrefix):], parentID[:])
	copy(indexKey[len(bucketIndexPrefix)+4:], key)
	return indexKey
}

// options returns the leveldb options used to open databases.
func options() *opt.Options {
	return &opt.Options{
		BlockCacheCapacity:     64 * opt.MiB,
		WriteBuffer:            32 * opt.MiB,
		Compression:            opt.NoCompression,
		DisableSeeksCompaction: true,
	}
}

// convertErr converts the passed leveldb error into a database error with an
// equivalent error kind and the passed description.  It also sets the passed
// error as the underlying error.
func convertErr(desc string, ldbErr error) database.Error {
	kind := database.ErrDriverSpecific
	switch {
	case ldberrors.IsCorrupted(ldbErr):
		kind = database.ErrCorruption
	case errors.Is(ldbErr, leveldb.ErrClosed):
		kind = database.ErrDbNotOpen
	}
	return database.MakeError(kind, desc, ldbErr)
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// db represents a leveldb backed database and implements the database.DB
// interface.  All database access is performed through transactions.
type db struct {
	writeLock sync.Mutex   // Limit to one write transaction at a time.
	closeLock sync.RWMutex // Make database close block while txns active.
	closed    bool         // Is the database closed?
	ldb       *leveldb.DB
}

// Enforce db implements the database.DB interface.
var _ database.DB = (*db)(nil)

// Type returns the database driver type the current database instance was
// created with.
//
// This function is part of the database.DB interface implementation.
func (db *db) Type() string {
	return dbType
}

// begin is the implementation function for the Begin database method.  See
// its documentation for more details.
//
// This function is only separate because it returns the internal transaction
// which is used by the managed transaction code while the database method
// returns the interface.
func (db *db) begin(writable bool) (*transaction, error) {
	// Whenever a new writable transaction is started, grab the write lock
	// to ensure only a single write transaction can be active at the same
	// time.  This lock will not be released until the transaction is
	// closed (via Rollback or Commit).
	if writable {
		db.writeLock.Lock()
	}

	// Whenever a new transaction is started, grab a read lock against the
	// database to ensure Close will wait for the transaction to finish.
	// This lock will not be released until the transaction is closed (via
	// Rollback or Commit).
	db.closeLock.RLock()
	if db.closed {
		db.closeLock.RUnlock()
		if writable {
			db.writeLock.Unlock()
		}
		return nil, database.MakeError(database.ErrDbNotOpen,
			"database is not open", nil)
	}

	tx := &transaction{db: db, writable: writable}
	var err error
	if writable {
		tx.ltx, err = db.ldb.OpenTransaction()
	} else {
		tx.snap, err = db.ldb.GetSnapshot()
	}
	if err != nil {
		db.closeLock.RUnlock()
		if writable {
			db.writeLock.Unlock()
		}
		return nil, convertErr("failed to open transaction", err)
	}
	tx.metaBucket = &bucket{tx: tx, id: metadataBucketID}
	return tx, nil
}

// Begin starts a transaction which is either read-only or read-write depending
// on the specified flag.  Multiple read-only transactions can be started
// simultaneously while only a single read-write transaction can be started at
// a time.  The call will block when starting a read-write transaction when one
// is already open.
//
// This function is part of the database.DB interface implementation.
func (db *db) Begin(writable bool) (database.Tx, error) {
	return db.begin(writable)
}

// rollbackOnPanic rolls the passed transaction back if the code in the calling
// function panics.  This is needed since the mutex on a transaction must be
// released and a panic in called code would prevent that from happening.
//
// NOTE: This can only be handled manually for managed transactions since they
// control the life-cycle of the transaction.  As the documentation on Begin
// calls out, callers opting to use manual transactions will have to ensure the
// transaction is rolled back on panic if it desires that functionality as well
// or the database will fail to close since the read-lock will never be
// released.
func rollbackOnPanic(tx *transaction) {
	if err := recover(); err != nil {
		tx.managed = false
		_ = tx.Rollback()
		panic(err)
	}
}

// View invokes the passed function in the context of a managed read-only
// transaction.  Any errors returned from
// the user-supplied function are returned from this function.
//
// This function is part of the database.DB interface implementation.
func (db *db) View(fn func(database.Tx) error) error {
	// Start a read-only transaction.
	tx, err := db.begin(false)
	if err != nil {
		return err
	}

	// Since the user-provided function might panic, ensure the transaction
	// releases all mutexes and resources.  There is no guarantee the caller
	// won't use recover and keep going.  Thus, the database must still be
	// in a usable state on panics due to caller issues.
	defer rollbackOnPanic(tx)

	tx.managed = true
	err = fn(tx)
	tx.managed = false
	if err != nil {
		// The error is ignored here because nothing was written yet
		// and regardless of a rollback failure, the tx is closed now
		// anyways.
		_ = tx.Rollback()
		return err
	}

	return tx.Rollback()
}

// Update invokes the passed function in the context of a managed read-write
// transaction.  Any errors returned from
// the user-supplied function will cause the transaction to be rolled back and
// are returned from this function.  Otherwise, the transaction is committed
// when the user-supplied function returns a nil error.
//
// This function is part of the database.DB interface implementation.
func (db *db) Update(fn func(database.Tx) error) error {
	// Start a read-write transaction.
	tx, err := db.begin(true)
	if err != nil {
		return err
	}

	// Since the user-provided function might panic, ensure the transaction
	// releases all mutexes and resources.  There is no guarantee the caller
	// won't use recover and keep going.  Thus, the database must still be
	// in a usable state on panics due to caller issues.
	defer rollbackOnPanic(tx)

	tx.managed = true
	err = fn(tx)
	tx.managed = false
	if err != nil {
		// The error is ignored here because nothing was written yet
		// and regardless of a rollback failure, the tx is closed now
		// anyways.
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Close cleanly shuts down the database and syncs all data.  It will block
// until all database transactions have been finalized (rolled back or
// committed).
//
// This function is part of the database.DB interface implementation.
func (db *db) Close() error {
	// Since all transactions have a read lock on this mutex, this will
	// cause Close to wait for all readers to complete.
	db.closeLock.Lock()
	defer db.closeLock.Unlock()

	if db.closed {
		return database.MakeError(database.ErrDbNotOpen,
			"database is not open", nil)
	}
	db.closed = true

	if err := db.ldb.Close(); err != nil {
		return convertErr("failed to close database", err)
	}
	return nil
}

// initDB stores the bookkeeping values of a newly created database.
func initDB(ldb *leveldb.DB, network wire.CurrencyNet) error {
	var netBytes, idBytes [4]byte
	binary.LittleEndian.PutUint32(netBytes[:], uint32(network))
	batch := new(leveldb.Batch)
	batch.Put(bucketizedKey(internalBucketID, networkKeyName), netBytes[:])
	batch.Put(bucketizedKey(internalBucketID, curBucketIDKeyName), idBytes[:])
	if err := ldb.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return convertErr("failed to initialize database", err)
	}
	return nil
}

// checkNetwork ensures the database was created for the passed network.
func checkNetwork(ldb *leveldb.DB, network wire.CurrencyNet) error {
	netBytes, err := ldb.Get(bucketizedKey(internalBucketID, networkKeyName), nil)
	if err != nil {
		return convertErr("failed to read database network", err)
	}
	if len(netBytes) != 4 {
		return database.MakeError(database.ErrCorruption,
			"malformed database network", nil)
	}
	dbNet := wire.CurrencyNet(binary.LittleEndian.Uint32(netBytes))
	if dbNet != network {
		str := fmt.Sprintf("database is for network %v instead of %v",
			dbNet, network)
		return database.MakeError(database.ErrInvalid, str, nil)
	}
	return nil
}

// openDB opens the database at the provided path.  database.ErrDbDoesNotExist
// is returned if the database doesn't exist and the create flag is not set.
func openDB(dbPath string, network wire.CurrencyNet, create bool) (database.DB, error) {
	var ldb *leveldb.DB
	var err error
	switch {
	case dbPath == "" && create:
		ldb, err = leveldb.Open(storage.NewMemStorage(), options())
		if err != nil {
			return nil, convertErr("failed to open memory database", err)
		}

	case dbPath == "":
		return nil, database.MakeError(database.ErrInvalid,
			"only newly created databases may be memory backed", nil)

	default:
		// Error if the database doesn't exist and the create flag is not
		// set.  Likewise, creating over an existing database is an error.
		dbExists := fileExists(dbPath)
		if !create && !dbExists {
			str := fmt.Sprintf("database %q does not exist", dbPath)
			return nil, database.MakeError(database.ErrDbDoesNotExist, str,
				nil)
		}
		if create && dbExists {
			str := fmt.Sprintf("database %q already exists", dbPath)
			return nil, database.MakeError(database.ErrDbExists, str, nil)
		}

		// Ensure the full path to the database exists.
		if create {
			if err := os.MkdirAll(dbPath, 0700); err != nil {
				str := fmt.Sprintf("failed to create database %q", dbPath)
				return nil, database.MakeError(database.ErrDriverSpecific,
					str, err)
			}
		}

		ldb, err = leveldb.OpenFile(dbPath, options())

		// Attempt to recover a corrupted database before giving up on it.
		if ldberrors.IsCorrupted(err) {
			log.Warnf("LevelDB corruption detected for path %s: %v",
				dbPath, err)
			ldb, err = leveldb.RecoverFile(dbPath, options())
			if err == nil {
				log.Warnf("LevelDB recovered from corruption for path %s",
					dbPath)
			}
		}
		if err != nil {
			return nil, convertErr("failed to open database", err)
		}
	}

	if create {
		err = initDB(ldb, network)
	} else {
		err = checkNetwork(ldb, network)
	}
	if err != nil {
		_ = ldb.Close()
		return nil, err
	}

	log.Debugf("Opened %s database at %q (network %v)", dbType, dbPath,
		network)
	return &db{ldb: ldb}, nil
}

// reader is the read interface shared by snapshots and transactions.
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// transaction represents a database transaction.  It can either be read-only
// or read-write and implements the database.Tx interface.  Read-only
// transactions read from a leveldb snapshot while read-write transactions
// stage their writes in a leveldb transaction that becomes visible atomically
// on commit.
type transaction struct {
	managed    bool                 // Is the transaction managed?
	closed     bool                 // Is the transaction closed?
	writable   bool                 // Is the transaction writable?
	db         *db                  // DB instance the tx was created from.
	snap       *leveldb.Snapshot    // Underlying snapshot for read-only txns.
	ltx        *leveldb.Transaction // Underlying transaction for writes.
	metaBucket *bucket              // The root metadata bucket.
}

// Enforce transaction implements the database.Tx interface.
var _ database.Tx = (*transaction)(nil)

// reader returns the source of reads for the transaction.
func (tx *transaction) reader() reader {
	if tx.ltx != nil {
		return tx.ltx
	}
	return tx.snap
}

// checkClosed returns an error if the database or transaction is closed.
func (tx *transaction) checkClosed() error {
	// The transaction is no longer valid if it has been closed.
	if tx.closed {
		return database.MakeError(database.ErrTxClosed,
			"transaction has already been closed", nil)
	}

	return nil
}

// checkWritable returns an error if the transaction is closed or read-only.
func (tx *transaction) checkWritable() error {
	if err := tx.checkClosed(); err != nil {
		return err
	}
	if !tx.writable {
		return database.MakeError(database.ErrTxNotWritable,
			"operation requires a writable database transaction", nil)
	}
	return nil
}

// fetchKey attempts to fetch the provided key.  Returns nil when the key does
// not exist.
func (tx *transaction) fetchKey(key []byte) ([]byte, error) {
	value, err := tx.reader().Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, convertErr("failed to read key", err)
	}
	return value, nil
}

// hasKey returns whether the provided key exists.
func (tx *transaction) hasKey(key []byte) (bool, error) {
	exists, err := tx.reader().Has(key, nil)
	if err != nil {
		return false, convertErr("failed to read key", err)
	}
	return exists, nil
}

// nextBucketID returns the next bucket ID to use for creating a new bucket.
//
// NOTE: This function must only be called on a writable transaction.  Since it
// is an internal helper function, it does not check.
func (tx *transaction) nextBucketID() ([4]byte, error) {
	var id [4]byte
	curIDKey := bucketizedKey(internalBucketID, curBucketIDKeyName)
	curIDBytes, err := tx.fetchKey(curIDKey)
	if err != nil {
		return id, err
	}
	if len(curIDBytes) != 4 {
		return id, database.MakeError(database.ErrCorruption,
			"malformed bucket id counter", nil)
	}

	nextID := binary.BigEndian.Uint32(curIDBytes) + 1
	binary.BigEndian.PutUint32(id[:], nextID)
	if err := tx.ltx.Put(curIDKey, id[:], nil); err != nil {
		return id, convertErr("failed to store bucket id counter", err)
	}
	return id, nil
}

// Metadata returns the top-most bucket for all metadata storage.
//
// This function is part of the database.Tx interface implementation.
func (tx *transaction) Metadata() database.Bucket {
	return tx.metaBucket
}

// close marks the transaction closed then releases any pending data, the
// underlying snapshot or transaction, the transaction read lock, and the write
// lock when the transaction is writable.
func (tx *transaction) close() {
	tx.closed = true

	if tx.snap != nil {
		tx.snap.Release()
		tx.snap = nil
	}
	if tx.ltx != nil {
		tx.ltx.Discard()
		tx.ltx = nil
	}

	tx.db.closeLock.RUnlock()
	if tx.writable {
		tx.db.writeLock.Unlock()
	}
}

// Commit commits all changes that have been made to the metadata.  Once
// Commit returns without error every change is durable.
//
// This function is part of the database.Tx interface implementation.
func (tx *transaction) Commit() error {
	// Prevent commits on managed transactions.
	if tx.managed {
		tx.close()
		panic("managed transaction commit not allowed")
	}

	// Ensure transaction state is valid.
	if err := tx.checkClosed(); err != nil {
		return err
	}

	// Regardless of whether the commit succeeds, the transaction is closed
	// on return.
	defer tx.close()

	// Ensure the transaction is writable.
	if !tx.writable {
		return database.MakeError(database.ErrTxNotWritable,
			"Commit requires a writable database transaction", nil)
	}

	if err := tx.ltx.Commit(); err != nil {
		return convertErr("failed to commit transaction", err)
	}
	tx.ltx = nil
	return nil
}

// Rollback undoes all changes that have been made to the metadata.
//
// This function is part of the database.Tx interface implementation.
func (tx *transaction) Rollback() error {
	// Prevent rollbacks on managed transactions.
	if tx.managed {
		tx.close()
		panic("managed transaction rollback not allowed")
	}

	// Ensure transaction state is valid.
	if err := tx.checkClosed(); err != nil {
		return err
	}

	tx.close()
	return nil
}

// bucket is an internal type used to represent a collection of key/value pairs
// and implements the database.Bucket interface.
type bucket struct {
	tx *transaction
	id [4]byte
}

// Enforce bucket implements the database.Bucket interface.
var _ database.Bucket = (*bucket)(nil)

// Bucket retrieves a nested bucket with the given key.  Returns nil if the
// bucket does not exist.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Bucket(key []byte) database.Bucket {
	if err := b.tx.checkClosed(); err != nil {
		return nil
	}

	childID, err := b.tx.fetchKey(bucketIndexKey(b.id, key))
	if err != nil || len(childID) != 4 {
		return nil
	}

	childBucket := &bucket{tx: b.tx}
	copy(childBucket.id[:], childID)
	return childBucket
}

// CreateBucketIfNotExists creates and returns a new nested bucket with the
// given key if it does not already exist.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) CreateBucketIfNotExists(key []byte) (database.Bucket, error) {
	if err := b.tx.checkWritable(); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, database.MakeError(database.ErrBucketNameRequired,
			"create bucket requires a key", nil)
	}

	if child := b.Bucket(key); child != nil {
		return child, nil
	}

	exists, err := b.tx.hasKey(bucketizedKey(b.id, key))
	if err != nil {
		return nil, err
	}
	if exists {
		str := fmt.Sprintf("key %x already holds a value", key)
		return nil, database.MakeError(database.ErrIncompatibleValue, str, nil)
	}

	childID, err := b.tx.nextBucketID()
	if err != nil {
		return nil, err
	}
	err = b.tx.ltx.Put(bucketIndexKey(b.id, key), childID[:], nil)
	if err != nil {
		return nil, convertErr("failed to create bucket", err)
	}
	return &bucket{tx: b.tx, id: childID}, nil
}

// ForEach invokes the passed function with every key/value pair in the bucket
// in ascending key order.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) ForEach(fn func(k, v []byte) error) error {
	if err := b.tx.checkClosed(); err != nil {
		return err
	}

	iter := b.tx.reader().NewIterator(util.BytesPrefix(b.id[:]), nil)
	defer iter.Release()
	for iter.Next() {
		k := append([]byte(nil), iter.Key()[len(b.id):]...)
		v := append([]byte(nil), iter.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return convertErr("failed to iterate bucket", err)
	}
	return nil
}

// Put saves the specified key/value pair to the bucket.  Keys that do not
// already exist are added and keys that already exist are overwritten.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Put(key, value []byte) error {
	if err := b.tx.checkWritable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return database.MakeError(database.ErrKeyRequired,
			"put requires a key", nil)
	}

	isBucket, err := b.tx.hasKey(bucketIndexKey(b.id, key))
	if err != nil {
		return err
	}
	if isBucket {
		str := fmt.Sprintf("key %x is a nested bucket", key)
		return database.MakeError(database.ErrIncompatibleValue, str, nil)
	}

	if err := b.tx.ltx.Put(bucketizedKey(b.id, key), value, nil); err != nil {
		return convertErr("failed to store key", err)
	}
	return nil
}

// Get returns the value for the given key.  Returns nil if the key does not
// exist in this bucket.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Get(key []byte) ([]byte, error) {
	if err := b.tx.checkClosed(); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, nil
	}

	return b.tx.fetchKey(bucketizedKey(b.id, key))
}

// Delete removes the specified key from the bucket.  Deleting a key that does
// not exist does not return an error.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Delete(key []byte) error {
	if err := b.tx.checkWritable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return nil
	}

	if err := b.tx.ltx.Delete(bucketizedKey(b.id, key), nil); err != nil {
		return convertErr("failed to delete key", err)
	}
	return nil
}
