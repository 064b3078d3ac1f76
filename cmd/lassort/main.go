// Command lassort re-sorts LIDAR point-cloud files into spatial order.
//
// Usage:
//
//	lassort [flags] source.lpc [more-sources...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/lassort"
)

var (
	size    = flag.Float64("size", 0, "cell edge length (0 = estimate from source density)")
	thin    = flag.Float64("thin", 0, "fraction of points to drop before bucketing, in [0,1)")
	workdir = flag.String("workdir", lassort.DefaultWorkDir, "directory for scratch segments")
	out     = flag.String("out", "", "output path (default <source-stem>-sorted.<ext>; single source only)")
	verbose = flag.Bool("v", false, "enable debug logging")
	jsonLog = flag.Bool("json", false, "emit JSON-formatted logs")
)

func usage() {
	fmt.Fprintf(os.Stdout, "usage: %s [flags] source.lpc [more-sources...]\n\n", os.Args[0])
	fmt.Fprintln(os.Stdout, "Sorts point-cloud files into spatial (cell raster) order. Append .zst or")
	fmt.Fprintln(os.Stdout, ".lz4 to the output path to compress the sorted point stream.")
	fmt.Fprintln(os.Stdout, "\nflags:")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	sources := flag.Args()
	if len(sources) == 0 {
		usage()
		return
	}
	if *out != "" && len(sources) > 1 {
		fmt.Fprintln(os.Stderr, "lassort: -out cannot be combined with multiple sources")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := lassort.NewTextLogger(level)
	if *jsonLog {
		logger = lassort.NewJSONLogger(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Each source is an independent run; a failure aborts that run only.
	failed := 0
	for _, src := range sources {
		summary, err := lassort.New(src, *out,
			lassort.WithCellSize(*size),
			lassort.WithThinFraction(*thin),
			lassort.WithWorkDir(*workdir),
			lassort.WithLogger(logger),
		).Run(ctx)
		if err != nil {
			logger.LogSort(ctx, src, *out, 0, err)
			failed++
			continue
		}
		logger.LogSort(ctx, src, summary.Output, summary.Accepted, nil)
		fmt.Printf("%s -> %s: %s\n", src, summary.Output, summary)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
