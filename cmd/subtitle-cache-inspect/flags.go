package main

// flags.go parses the subtitle-cache-inspect command line. The teacher's own
// cmd/arena-cache-inspect/main.go calls a parseFlags()/options pair that its
// tree never actually defines; this file supplies that missing half in the
// same shape (a flag.FlagSet populating a plain options struct) rather than
// leaving the gap in place.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

type options struct {
	target    string
	json      bool
	watch     bool
	interval  time.Duration
	version   bool
	warnBytes int64
}

func parseFlags() *options {
	fs := flag.NewFlagSet("subtitle-cache-inspect", flag.ExitOnError)

	target := fs.String("target", "http://localhost:6060", "base URL of the service exposing /debug/subtitle-cache/snapshot")
	jsonOut := fs.Bool("json", false, "print the raw JSON snapshot instead of a formatted table")
	watch := fs.Bool("watch", false, "poll the target repeatedly instead of exiting after one snapshot")
	interval := fs.Duration("interval", 2*time.Second, "polling interval when -watch is set")
	version := fs.Bool("version", false, "print the build version and exit")
	warn := fs.String("warn-bytes", "", "human-readable byte threshold (e.g. 64MiB) to flag a cache that has grown past it")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags]\n", fs.Name())
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	var warnBytes int64
	if *warn != "" {
		n, err := humanize.ParseBytes(*warn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "subtitle-cache-inspect: invalid -warn-bytes %q: %v\n", *warn, err)
			os.Exit(2)
		}
		warnBytes = int64(n)
	}

	return &options{
		target:    *target,
		json:      *jsonOut,
		watch:     *watch,
		interval:  *interval,
		version:   *version,
		warnBytes: warnBytes,
	}
}
