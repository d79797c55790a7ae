package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kapu/trendwatch-go/internal/config"
	"github.com/kapu/trendwatch-go/internal/service"
	"github.com/kapu/trendwatch-go/internal/util"
	"go.uber.org/zap"
)

// One-shot scrape: collect every configured source and dump the unlabeled
// dataset as CSV, for checking the parsers against the live site.
func main() {
	output := flag.String("o", "trends.csv", "output CSV path")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall collection timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fetcher := service.NewFetcherService(logger)
	parser := service.NewParserService(logger)
	collector := service.NewCollectorService(cfg.Trends, fetcher, parser, logger)

	dataset, err := collector.Collect(ctx, util.NowIST())
	if err != nil {
		logger.Fatal("Collection failed", zap.Error(err))
	}

	file, err := os.Create(*output)
	if err != nil {
		logger.Fatal("Failed to create output file", zap.String("path", *output), zap.Error(err))
	}
	defer file.Close()

	if err := dataset.WriteCSV(file); err != nil {
		logger.Fatal("Failed to write CSV", zap.Error(err))
	}

	logger.Info("Export completed",
		zap.String("path", *output),
		zap.Int("records", dataset.Len()))
}
