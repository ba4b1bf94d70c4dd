// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dbtest provides a conformance suite run against every database
// driver.
package dbtest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/zecnode/zecd/database"
)

var (
	bucketName = []byte("bucket")
	nestedName = []byte("nested")
)

// RunInterfaceTests exercises the database.DB contract against an empty, open
// database.  The database is left open.
func RunInterfaceTests(t *testing.T, db database.DB) {
	t.Helper()

	t.Run("put get foreach", func(t *testing.T) { testPutGetForEach(t, db) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, db) })
	t.Run("read only", func(t *testing.T) { testReadOnly(t, db) })
	t.Run("closed tx", func(t *testing.T) { testClosedTx(t, db) })
	t.Run("invalid keys", func(t *testing.T) { testInvalidKeys(t, db) })
	t.Run("snapshot isolation", func(t *testing.T) { testIsolation(t, db) })
}

// testPutGetForEach ensures stored values are returned, iteration is ordered
// and skips nested buckets, and deletion removes values.
func testPutGetForEach(t *testing.T, db database.DB) {
	err := db.Update(func(tx database.Tx) error {
		b, err := tx.Metadata().CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		for _, k := range []string{"k3", "k1", "k2", "gone"} {
			if err := b.Put([]byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		if err := b.Delete([]byte("gone")); err != nil {
			return err
		}
		nested, err := b.CreateBucketIfNotExists(nestedName)
		if err != nil {
			return err
		}
		return nested.Put([]byte("inner"), []byte("value"))
	})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}

	err = db.View(func(tx database.Tx) error {
		b := tx.Metadata().Bucket(bucketName)
		if b == nil {
			return errors.New("bucket missing")
		}
		v, err := b.Get([]byte("k2"))
		if err != nil {
			return err
		}
		if !bytes.Equal(v, []byte("vk2")) {
			return fmt.Errorf("unexpected value %q", v)
		}
		if v, err := b.Get([]byte("gone")); err != nil || v != nil {
			return fmt.Errorf("deleted key returned %q (err %v)", v, err)
		}
		if v, err := b.Get([]byte("missing")); err != nil || v != nil {
			return fmt.Errorf("missing key returned %q (err %v)", v, err)
		}

		var keys []string
		err = b.ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
		if err != nil {
			return err
		}
		if fmt.Sprint(keys) != "[k1 k2 k3]" {
			return fmt.Errorf("unexpected iteration order %v", keys)
		}

		nested := b.Bucket(nestedName)
		if nested == nil {
			return errors.New("nested bucket missing")
		}
		if v, _ := nested.Get([]byte("inner")); !bytes.Equal(v, []byte("value")) {
			return fmt.Errorf("unexpected nested value %q", v)
		}
		if v, _ := b.Get([]byte("inner")); v != nil {
			return errors.New("nested value leaked into parent")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	// Stopping iteration returns the callback error.
	stop := errors.New("stop")
	err = db.View(func(tx database.Tx) error {
		return tx.Metadata().Bucket(bucketName).ForEach(func(k, v []byte) error {
			return stop
		})
	})
	if !errors.Is(err, stop) {
		t.Fatalf("ForEach: unexpected error - got %v, want %v", err, stop)
	}
}

// testRollback ensures writes of failed managed transactions and explicitly
// rolled back transactions are discarded.
func testRollback(t *testing.T, db database.DB) {
	failure := errors.New("failure")
	err := db.Update(func(tx database.Tx) error {
		b, err := tx.Metadata().CreateBucketIfNotExists([]byte("rollback"))
		if err != nil {
			return err
		}
		if err := b.Put([]byte("key"), []byte("value")); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Update: unexpected error - got %v, want %v", err, failure)
	}

	tx, err := db.Begin(true)
	if err != nil {
		t.Fatalf("Begin: unexpected error: %v", err)
	}
	if err := tx.Metadata().Put([]byte("manual"), []byte("value")); err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: unexpected error: %v", err)
	}

	err = db.View(func(tx database.Tx) error {
		if tx.Metadata().Bucket([]byte("rollback")) != nil {
			return errors.New("bucket of failed transaction exists")
		}
		if v, _ := tx.Metadata().Get([]byte("manual")); v != nil {
			return errors.New("value of rolled back transaction exists")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// testReadOnly ensures writes against read-only transactions are rejected.
func testReadOnly(t *testing.T, db database.DB) {
	err := db.View(func(tx database.Tx) error {
		meta := tx.Metadata()
		if err := meta.Put([]byte("k"), []byte("v")); !errors.Is(err, database.ErrTxNotWritable) {
			return fmt.Errorf("Put: unexpected error %v", err)
		}
		if err := meta.Delete([]byte("k")); !errors.Is(err, database.ErrTxNotWritable) {
			return fmt.Errorf("Delete: unexpected error %v", err)
		}
		_, err := meta.CreateBucketIfNotExists([]byte("b"))
		if !errors.Is(err, database.ErrTxNotWritable) {
			return fmt.Errorf("CreateBucketIfNotExists: unexpected error %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	tx, err := db.Begin(false)
	if err != nil {
		t.Fatalf("Begin: unexpected error: %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, database.ErrTxNotWritable) {
		t.Fatalf("Commit: unexpected error - got %v, want %v", err,
			database.ErrTxNotWritable)
	}
}

// testClosedTx ensures closed transactions reject further use.
func testClosedTx(t *testing.T, db database.DB) {
	tx, err := db.Begin(true)
	if err != nil {
		t.Fatalf("Begin: unexpected error: %v", err)
	}
	meta := tx.Metadata()
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: unexpected error: %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, database.ErrTxClosed) {
		t.Fatalf("Commit: unexpected error - got %v, want %v", err,
			database.ErrTxClosed)
	}
	if err := tx.Rollback(); !errors.Is(err, database.ErrTxClosed) {
		t.Fatalf("Rollback: unexpected error - got %v, want %v", err,
			database.ErrTxClosed)
	}
	if _, err := meta.Get([]byte("k")); !errors.Is(err, database.ErrTxClosed) {
		t.Fatalf("Get: unexpected error - got %v, want %v", err,
			database.ErrTxClosed)
	}
	if err := meta.Put([]byte("k"), nil); !errors.Is(err, database.ErrTxClosed) {
		t.Fatalf("Put: unexpected error - got %v, want %v", err,
			database.ErrTxClosed)
	}
}

// testInvalidKeys ensures empty keys and collisions between values and
// buckets are rejected.
func testInvalidKeys(t *testing.T, db database.DB) {
	err := db.Update(func(tx database.Tx) error {
		meta := tx.Metadata()
		if err := meta.Put(nil, []byte("v")); !errors.Is(err, database.ErrKeyRequired) {
			return fmt.Errorf("Put: unexpected error %v", err)
		}
		_, err := meta.CreateBucketIfNotExists(nil)
		if !errors.Is(err, database.ErrBucketNameRequired) {
			return fmt.Errorf("CreateBucketIfNotExists: unexpected error %v", err)
		}

		if _, err := meta.CreateBucketIfNotExists([]byte("abucket")); err != nil {
			return err
		}
		err = meta.Put([]byte("abucket"), []byte("v"))
		if !errors.Is(err, database.ErrIncompatibleValue) {
			return fmt.Errorf("Put over bucket: unexpected error %v", err)
		}

		if err := meta.Put([]byte("avalue"), []byte("v")); err != nil {
			return err
		}
		_, err = meta.CreateBucketIfNotExists([]byte("avalue"))
		if !errors.Is(err, database.ErrIncompatibleValue) {
			return fmt.Errorf("bucket over value: unexpected error %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// testIsolation ensures a read-only transaction keeps observing the state it
// started with while a write commits.
func testIsolation(t *testing.T, db database.DB) {
	key := []byte("isolated")
	err := db.Update(func(tx database.Tx) error {
		return tx.Metadata().Put(key, []byte("old"))
	})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}

	reader, err := db.Begin(false)
	if err != nil {
		t.Fatalf("Begin: unexpected error: %v", err)
	}
	defer reader.Rollback()

	err = db.Update(func(tx database.Tx) error {
		return tx.Metadata().Put(key, []byte("new"))
	})
	if err != nil {
		t.Fatalf("Update: unexpected error: %v", err)
	}

	v, err := reader.Metadata().Get(key)
	if err != nil || !bytes.Equal(v, []byte("old")) {
		t.Fatalf("reader observed %q (err %v), want %q", v, err, "old")
	}
	err = db.View(func(tx database.Tx) error {
		v, err := tx.Metadata().Get(key)
		if err != nil || !bytes.Equal(v, []byte("new")) {
			return fmt.Errorf("new reader observed %q (err %v)", v, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
