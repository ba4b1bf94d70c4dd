// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/dcrd/dcrutil/v4"
	flags "github.com/jessevdk/go-flags"
	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/database"
	_ "github.com/zecnode/zecd/database/boltdb"
	_ "github.com/zecnode/zecd/database/ldb"
	"github.com/zecnode/zecd/internal/version"
)

const (
	defaultDataDirname = "data"
	defaultLogDirname  = "logs"
	defaultLogFilename = "zecimport.log"
	defaultDbType      = "leveldb"
	defaultLogLevel    = "info"
	defaultInFile      = "bootstrap.dat"
	blocksDbNamePrefix = "blocks"
	networkNameMainNet = "mainnet"
	networkNameRegNet  = "regnet"
)

var (
	defaultHomeDir = dcrutil.AppDataDir("zecd", false)
	defaultDataDir = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir  = filepath.Join(defaultHomeDir, defaultLogDirname)
	knownDbTypes   = database.SupportedDrivers()
)

// config defines the configuration options for zecimport.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DataDir     string `short:"b" long:"datadir" description:"Location of the zecd data directory"`
	DbType      string `long:"dbtype" description:"Database backend to use for the block chain"`
	RegNet      bool   `long:"regnet" description:"Use the regression test network"`
	InFile      string `short:"i" long:"infile" description:"File containing the block(s)"`
	FastAdd     bool   `long:"fast" description:"Skip proof verification of blocks that are not checkpointed"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Progress    bool   `short:"p" long:"progress" description:"Show a progress message every 10 seconds while importing"`

	params *chaincfg.Params
}

// errSuppressUsage signifies that an error that happened during the initial
// configuration phase should suppress the usage output since it was not caused
// by the user.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// netName returns the name used when referring to a network in paths.
func netName(params *chaincfg.Params) string {
	if params.Net == chaincfg.RegNetParams().Net {
		return networkNameRegNet
	}
	return networkNameMainNet
}

// blockDbPath returns the path to the block database given a database type.
func blockDbPath(cfg *config) string {
	dbName := blocksDbNamePrefix + "_" + cfg.DbType
	return filepath.Join(cfg.DataDir, netName(cfg.params), dbName)
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// loadConfig initializes and parses the config using command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Parse CLI options and overwrite/add any specified options
//  3. Validate the result and initialize logging
//
// The above results in functioning properly without any config settings
// while still allowing the user to override settings with command line
// options.
func loadConfig(args []string) (*config, error) {
	// Default config.
	cfg := config{
		DataDir:    defaultDataDir,
		DbType:     defaultDbType,
		InFile:     defaultInFile,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}

	parser := newConfigParser(&cfg, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version.String())
		os.Exit(0)
	}

	cfg.params = chaincfg.MainNetParams()
	if cfg.RegNet {
		cfg.params = chaincfg.RegNetParams()
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "the specified database type [%v] is invalid -- " +
			"supported types %v"
		return nil, fmt.Errorf(str, cfg.DbType, knownDbTypes)
	}

	// Ensure the specified block file exists.
	if _, err := os.Stat(cfg.InFile); err != nil {
		str := "the specified block file [%v] does not exist"
		return nil, fmt.Errorf(str, cfg.InFile)
	}

	// Append the network type to the log directory so it is "namespaced"
	// per network in the same fashion as the data directory.
	cfg.LogDir = filepath.Join(cfg.LogDir, netName(cfg.params))

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	err = initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	if err != nil {
		return nil, errSuppressUsage(err.Error())
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}
