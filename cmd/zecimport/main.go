// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zecnode/zecd/blockchain"
	"github.com/zecnode/zecd/database"
	"github.com/zecnode/zecd/internal/version"
)

// loadBlockDB opens the block database and returns a handle to it.  The
// database is created when it does not exist yet.
func loadBlockDB(cfg *config) (database.DB, error) {
	dbPath := blockDbPath(cfg)
	zimpLog.Infof("Loading block database from '%s'", dbPath)
	db, err := database.Open(cfg.DbType, dbPath, cfg.params.Net)
	if err == nil {
		return db, nil
	}
	if !errors.Is(err, database.ErrDbDoesNotExist) {
		return nil, err
	}

	// Create the db if it does not exist.
	err = os.MkdirAll(filepath.Dir(dbPath), 0700)
	if err != nil {
		return nil, err
	}
	return database.Create(cfg.DbType, dbPath, cfg.params.Net)
}

// realMain is the real main function for the utility.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func realMain(ctx context.Context, cfg *config) error {
	zimpLog.Infof("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)

	db, err := loadBlockDB(cfg)
	if err != nil {
		zimpLog.Errorf("Failed to load database: %v", err)
		return err
	}
	defer db.Close()

	fi, err := os.Open(cfg.InFile)
	if err != nil {
		zimpLog.Errorf("Failed to open file %v: %v", cfg.InFile, err)
		return err
	}
	defer fi.Close()

	chain, err := blockchain.New(&blockchain.Config{
		DB:          db,
		ChainParams: cfg.params,
	})
	if err != nil {
		zimpLog.Errorf("Failed to initialize the chain: %v", err)
		return err
	}
	best := chain.BestSnapshot()
	zimpLog.Infof("Chain tip is %v at height %d", best.Hash, best.Height)

	zimpLog.Info("Starting import")
	start := time.Now()
	importer := newBlockImporter(chain, cfg.params, fi, cfg.FastAdd,
		cfg.Progress)
	results, err := importer.Import(ctx)
	best = chain.BestSnapshot()
	zimpLog.Infof("Processed a total of %d blocks (%d imported, %d "+
		"already known, %d orphaned) in %v", results.blocksProcessed,
		results.blocksImported, results.blocksSkipped, results.orphans,
		time.Since(start).Round(time.Millisecond))
	zimpLog.Infof("Chain tip is %v at height %d", best.Hash, best.Height)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			zimpLog.Info("Import interrupted")
			return nil
		}
		zimpLog.Errorf("Import failed: %v", err)
		return err
	}
	return nil
}

func main() {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			appName := filepath.Base(os.Args[0])
			fmt.Fprintf(os.Stderr, "Use %s -h to show usage\n", appName)
		}
		os.Exit(1)
	}

	err = realMain(shutdownListener(), cfg)
	if logRotator != nil {
		logRotator.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
