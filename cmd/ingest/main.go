package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"BarPull/internal/di"
	"BarPull/pkg/config"
)

// Batch ingestion CLI. Pulls daily bars for every symbol on the command line
// and reports a per-symbol summary. A symbol that fails is reported and
// skipped; the exit code is 0 regardless so schedulers keep the job green.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	symbols := flag.Args()
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest [-config path] SYMBOL [SYMBOL...]")
		os.Exit(2)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ingestor, err := di.InitializeIngestor(cfg)
	if err != nil {
		log.Fatalf("ingestor initialization failed: %v", err)
	}
	defer func() {
		if err := ingestor.Close(); err != nil {
			log.Printf("close error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := ingestor.IngestMany(ctx, symbols)

	ok, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%-10s FAILED: %v\n", r.Symbol, r.Err)
			continue
		}
		ok++
		fmt.Printf("%-10s %d bars\n", r.Symbol, r.Bars)
	}
	fmt.Printf("done: %d succeeded, %d failed\n", ok, failed)
}
