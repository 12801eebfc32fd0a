package main

// main.go implements the subtitle-cache inspector CLI: it polls a target
// process's /debug/subtitle-cache/snapshot endpoint and prints per-cache hit/miss/eviction/size
// statistics, either as a formatted table or raw JSON. Grounded on the
// teacher's cmd/arena-cache-inspect/main.go, re-themed from one cache's
// stats to the six named caches this snapshot reports.
//
// Build-time flag: `-ldflags "-X main.version=vX.Y.Z"`.
//
// © 2025 subtitle-cache authors. MIT License.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
)

var version = "dev"

// cacheNames lists the snapshot's top-level keys in display order, matching
// the type stratification order from SPEC_FULL.md §9.
var cacheNames = []string{"font", "outline", "glyph_metrics", "shaper_font", "bitmap", "composite"}

func main() {
	opts := parseFlags()

	if opts.version {
		fmt.Println(version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if opts.watch {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for {
			if err := dumpOnce(ctx, opts); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return
			}
		}
	}

	if err := dumpOnce(ctx, opts); err != nil {
		fatal(err)
	}
}

func dumpOnce(ctx context.Context, opts *options) error {
	snap, err := fetchSnapshot(ctx, opts.target)
	if err != nil {
		return err
	}
	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return prettyPrint(snap, opts.warnBytes)
}

func fetchSnapshot(ctx context.Context, base string) (map[string]any, error) {
	url := base + "/debug/subtitle-cache/snapshot"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func prettyPrint(data map[string]any, warnBytes int64) error {
	for _, name := range cacheNames {
		raw, ok := data[name]
		if !ok {
			continue
		}
		fields, _ := raw.(map[string]any)
		size := int64(toFloat(fields["Size"]))
		fmt.Printf("%-14s items=%-8v size=%-10s hits=%-8v misses=%-8v evictions=%v\n",
			name,
			fields["Items"],
			humanize.Bytes(uint64(size)),
			fields["Hits"],
			fields["Misses"],
			fields["Evictions"],
		)
		if warnBytes > 0 && size > warnBytes {
			fmt.Printf("  ! %s has grown past %s (currently %s)\n", name, humanize.Bytes(uint64(warnBytes)), humanize.Bytes(uint64(size)))
		}
	}
	return nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "subtitle-cache-inspect:", err)
	os.Exit(1)
}
