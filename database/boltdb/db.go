// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package boltdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/wire"
	bolt "go.etcd.io/bbolt"
)

const (
	// dbFileName is the name of the bbolt file inside the database
	// directory.
	dbFileName = "chain.db"

	// initialMmapSize is large enough that read transactions do not block
	// the writer while the file grows for typical chain state sizes.
	initialMmapSize = 1 << 28
)

var (
	// metadataBucketName is the top-level bucket exposed as the metadata
	// bucket of every transaction.
	metadataBucketName = []byte("metadata")

	// internalBucketName is the top-level bucket holding the driver's
	// bookkeeping values.
	internalBucketName = []byte("internal")

	// networkKeyName is the name of the key that holds the network the
	// database was created for.
	networkKeyName = []byte("network")
)

// convertErr converts the passed bbolt error into a database error with an
// equivalent error kind and the passed description.  It also sets the passed
// error as the underlying error.
func convertErr(desc string, boltErr error) database.Error {
	kind := database.ErrDriverSpecific
	switch {
	case errors.Is(boltErr, bolt.ErrIncompatibleValue):
		kind = database.ErrIncompatibleValue
	case errors.Is(boltErr, bolt.ErrBucketNameRequired):
		kind = database.ErrBucketNameRequired
	case errors.Is(boltErr, bolt.ErrKeyRequired):
		kind = database.ErrKeyRequired
	case errors.Is(boltErr, bolt.ErrTxNotWritable):
		kind = database.ErrTxNotWritable
	case errors.Is(boltErr, bolt.ErrTxClosed):
		kind = database.ErrTxClosed
	case errors.Is(boltErr, bolt.ErrDatabaseNotOpen):
		kind = database.ErrDbNotOpen
	case errors.Is(boltErr, bolt.ErrInvalid), errors.Is(boltErr, bolt.ErrChecksum):
		kind = database.ErrCorruption
	}
	return database.MakeError(kind, desc, boltErr)
}

// db wraps a bbolt database and implements the database.DB interface.
type db struct {
	closeLock sync.RWMutex // Make database close block while txns active.
	closed    bool         // Is the database closed?
	bdb       *bolt.DB
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

// begin starts a bbolt transaction while holding the close lock until the
// transaction is closed.
func (db *db) begin(writable bool) (*transaction, error) {
	db.closeLock.RLock()
	if db.closed {
		db.closeLock.RUnlock()
		return nil, database.MakeError(database.ErrDbNotOpen,
			"database is not open", nil)
	}

	btx, err := db.bdb.Begin(writable)
	if err != nil {
		db.closeLock.RUnlock()
		return nil, convertErr("failed to open transaction", err)
	}
	tx := &transaction{db: db, btx: btx, writable: writable}
	tx.metaBucket = &bucket{tx: tx, bb: btx.Bucket(metadataBucketName)}
	return tx, nil
}

// Begin starts a transaction which is either read-only or read-write depending
// on the specified flag.
//
// This function is part of the database.DB interface implementation.
func (db *db) Begin(writable bool) (database.Tx, error) {
	return db.begin(writable)
}

// View invokes the passed function in the context of a managed read-only
// transaction.
//
// This function is part of the database.DB interface implementation.
func (db *db) View(fn func(database.Tx) error) error {
	tx, err := db.begin(false)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	err = fn(tx)
	if rbErr := tx.Rollback(); err == nil {
		err = rbErr
	}
	return err
}

// Update invokes the passed function in the context of a managed read-write
// transaction.  The transaction is committed when the function returns nil
// and rolled back otherwise.
//
// This function is part of the database.DB interface implementation.
func (db *db) Update(fn func(database.Tx) error) error {
	tx, err := db.begin(true)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close cleanly shuts down the database and syncs all data.
//
// This function is part of the database.DB interface implementation.
func (db *db) Close() error {
	db.closeLock.Lock()
	defer db.closeLock.Unlock()

	if db.closed {
		return database.MakeError(database.ErrDbNotOpen,
			"database is not open", nil)
	}
	db.closed = true

	if err := db.bdb.Close(); err != nil {
		return convertErr("failed to close database", err)
	}
	return nil
}

// openDB opens the database in the provided directory, creating it first when
// the create flag is set.
func openDB(dbPath string, network wire.CurrencyNet, create bool) (database.DB, error) {
	if dbPath == "" {
		return nil, database.MakeError(database.ErrInvalid,
			"database path is required", nil)
	}

	dbFile := filepath.Join(dbPath, dbFileName)
	_, statErr := os.Stat(dbFile)
	dbExists := statErr == nil
	if !create && !dbExists {
		str := fmt.Sprintf("database %q does not exist", dbFile)
		return nil, database.MakeError(database.ErrDbDoesNotExist, str, nil)
	}
	if create && dbExists {
		str := fmt.Sprintf("database %q already exists", dbFile)
		return nil, database.MakeError(database.ErrDbExists, str, nil)
	}
	if create {
		if err := os.MkdirAll(dbPath, 0700); err != nil {
			str := fmt.Sprintf("failed to create database %q", dbPath)
			return nil, database.MakeError(database.ErrDriverSpecific, str,
				err)
		}
	}

	bdb, err := bolt.Open(dbFile, 0600, &bolt.Options{
		Timeout:         time.Second,
		InitialMmapSize: initialMmapSize,
	})
	if err != nil {
		return nil, convertErr("failed to open database", err)
	}

	if create {
		err = bdb.Update(func(tx *bolt.Tx) error {
			if _, err := tx.CreateBucket(metadataBucketName); err != nil {
				return err
			}
			internal, err := tx.CreateBucket(internalBucketName)
			if err != nil {
				return err
			}
			var netBytes [4]byte
			binary.LittleEndian.PutUint32(netBytes[:], uint32(network))
			return internal.Put(networkKeyName, netBytes[:])
		})
		if err != nil {
			err = convertErr("failed to initialize database", err)
		}
	} else {
		err = bdb.View(func(tx *bolt.Tx) error {
			return checkNetwork(tx, network)
		})
	}
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}

	log.Debugf("Opened %s database at %q (network %v)", dbType, dbFile,
		network)
	return &db{bdb: bdb}, nil
}

// checkNetwork ensures the database was created for the passed network.
func checkNetwork(tx *bolt.Tx, network wire.CurrencyNet) error {
	internal := tx.Bucket(internalBucketName)
	if internal == nil || tx.Bucket(metadataBucketName) == nil {
		return database.MakeError(database.ErrCorruption,
			"database is missing its top-level buckets", nil)
	}
	netBytes := internal.Get(networkKeyName)
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

// transaction wraps a bbolt transaction and implements the database.Tx
// interface.
type transaction struct {
	closed     bool
	writable   bool
	db         *db
	btx        *bolt.Tx
	metaBucket *bucket
}

// Enforce transaction implements the database.Tx interface.
var _ database.Tx = (*transaction)(nil)

// checkClosed returns an error if the transaction is closed.
func (tx *transaction) checkClosed() error {
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

// Metadata returns the top-most bucket for all metadata storage.
//
// This function is part of the database.Tx interface implementation.
func (tx *transaction) Metadata() database.Bucket {
	return tx.metaBucket
}

// close marks the transaction closed and releases the close lock.
func (tx *transaction) close() {
	tx.closed = true
	tx.db.closeLock.RUnlock()
}

// Commit commits all changes that have been made to the metadata.
//
// This function is part of the database.Tx interface implementation.
func (tx *transaction) Commit() error {
	if err := tx.checkClosed(); err != nil {
		return err
	}
	defer tx.close()

	if !tx.writable {
		_ = tx.btx.Rollback()
		return database.MakeError(database.ErrTxNotWritable,
			"Commit requires a writable database transaction", nil)
	}
	if err := tx.btx.Commit(); err != nil {
		return convertErr("failed to commit transaction", err)
	}
	return nil
}

// Rollback undoes all changes that have been made to the metadata.
//
// This function is part of the database.Tx interface implementation.
func (tx *transaction) Rollback() error {
	if err := tx.checkClosed(); err != nil {
		return err
	}
	defer tx.close()

	if err := tx.btx.Rollback(); err != nil {
		return convertErr("failed to roll back transaction", err)
	}
	return nil
}

// bucket wraps a bbolt bucket and implements the database.Bucket interface.
type bucket struct {
	tx *transaction
	bb *bolt.Bucket
}

// Enforce bucket implements the database.Bucket interface.
var _ database.Bucket = (*bucket)(nil)

// Bucket retrieves a nested bucket with the given key.  Returns nil if the
// bucket does not exist.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Bucket(key []byte) database.Bucket {
	if b.tx.checkClosed() != nil {
		return nil
	}
	child := b.bb.Bucket(key)
	if child == nil {
		return nil
	}
	return &bucket{tx: b.tx, bb: child}
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

	child, err := b.bb.CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr("failed to create bucket", err)
	}
	return &bucket{tx: b.tx, bb: child}, nil
}

// ForEach invokes the passed function with every key/value pair in the bucket
// in ascending key order.  Nested buckets are skipped.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) ForEach(fn func(k, v []byte) error) error {
	if err := b.tx.checkClosed(); err != nil {
		return err
	}
	return b.bb.ForEach(func(k, v []byte) error {
		// Nested buckets have nil values.
		if v == nil {
			return nil
		}
		return fn(append([]byte(nil), k...), append([]byte{}, v...))
	})
}

// Put saves the specified key/value pair to the bucket.
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
	if value == nil {
		value = []byte{}
	}
	if err := b.bb.Put(key, value); err != nil {
		return convertErr("failed to store key", err)
	}
	return nil
}

// Get returns a copy of the value for the given key.  Returns nil if the key
// does not exist in this bucket.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Get(key []byte) ([]byte, error) {
	if err := b.tx.checkClosed(); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, nil
	}
	value := b.bb.Get(key)
	if value == nil {
		return nil, nil
	}
	return append([]byte{}, value...), nil
}

// Delete removes the specified key from the bucket.
//
// This function is part of the database.Bucket interface implementation.
func (b *bucket) Delete(key []byte) error {
	if err := b.tx.checkWritable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return nil
	}
	if err := b.bb.Delete(key); err != nil {
		return convertErr("failed to delete key", err)
	}
	return nil
}
