// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// Default values for CLI flags
	defaultArgListenAddress = "localhost:9464"
	defaultArgFreshness     = 400 * time.Millisecond
)

// Help strings for command line arguments
var (
	configFileHelp = "Path to a file with configuration options, one flag per line " +
		"in the format of 'flag value'."
	freshnessHelp = "Window within which the metric callbacks of one collection pass " +
		"share a raw sample. Must stay below the scrape interval."
	listenAddressHelp = "Listening address of the Prometheus scrape endpoint " +
		"in the format of host:port."
	verboseModeHelp = "Enable verbose logging and debugging capabilities."
	versionHelp     = "Show version."
)

type arguments struct {
	freshness     time.Duration
	listenAddress string
	verboseMode   bool
	version       bool

	fs *flag.FlagSet
}

func parseArgs() (*arguments, error) {
	var args arguments

	fs := flag.NewFlagSet("hostmetrics", flag.ExitOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.String("config", "", configFileHelp)

	fs.DurationVar(&args.freshness, "freshness", defaultArgFreshness, freshnessHelp)

	fs.StringVar(&args.listenAddress, "listen-address", defaultArgListenAddress,
		listenAddressHelp)

	fs.BoolVar(&args.verboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.verboseMode, "verbose", false, verboseModeHelp)
	fs.BoolVar(&args.version, "version", false, versionHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	args.fs = fs

	return &args, ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("OTEL_HOST_METRICS"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithIgnoreUndefined(true),
		ff.WithAllowMissingConfigFile(true),
	)
}

// dump logs the resolved configuration in verbose mode.
func (args *arguments) dump() {
	log.Debug("Config:")
	args.fs.VisitAll(func(f *flag.Flag) {
		log.Debug(fmt.Sprintf("%s: %v", f.Name, f.Value))
	})
}
