// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2020 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package database provides a transactional key/value store for chain state.

Storage is organized as nested buckets of key/value pairs below a single
metadata bucket.  All access happens through transactions: any number of
read-only transactions observe a fixed view of the last committed state while
at most one read-write transaction is active.  A committed transaction is
durable and its writes become visible all at once.

Backends register themselves as drivers and are selected by name:

	import (
		"github.com/zecnode/zecd/database"
		_ "github.com/zecnode/zecd/database/ldb"
	)

	db, err := database.Create("leveldb", "/path/to/db", wire.MainNet)
	if err != nil {
		// Handle error
	}
	defer db.Close()

	err = db.Update(func(tx database.Tx) error {
		bucket, err := tx.Metadata().CreateBucketIfNotExists([]byte("names"))
		if err != nil {
			return err
		}
		return bucket.Put([]byte("key"), []byte("value"))
	})

Errors are of type Error, which wraps an ErrorKind, so callers can check them
with errors.Is.
*/
package database
