package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"skillpulse/internal/app"
	"skillpulse/internal/domain"
)

func main() {
	limit := flag.Int("limit", 5, "number of sample rows")
	migrations := flag.String("migrations", "migrations", "migrations directory")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.LUTC)

	cfg, err := app.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := app.NewContainer(ctx, cfg, app.Options{AppName: cfg.App.AppName + "-inspect", Logger: logger, MigrationsDir: *migrations})
	if err != nil {
		logger.Fatalf("failed to init container: %v", err)
	}
	defer func() { _ = c.Close() }()

	for i, col := range []string{"role_bucket", "level_bucket", "source"} {
		stats, err := c.Stats.CountBy(ctx, col)
		if err != nil {
			logger.Fatalf("count by %s: %v", col, err)
		}
		if i > 0 {
			fmt.Println()
		}
		printCounts(col, stats)
	}

	rows, err := c.Stats.Sample(ctx, *limit)
	if err != nil {
		logger.Fatalf("sample rows: %v", err)
	}
	fmt.Println("\nSample rows:")
	for _, r := range rows {
		fmt.Printf("- %s @ %s\n  %s\n\n", r.Title, r.Company, r.URL)
	}
}

func printCounts(column string, stats []domain.BucketStat) {
	fmt.Printf("Counts by %s:\n", column)
	for _, s := range stats {
		fmt.Printf("   %s\t%d\n", s.Key, s.Count)
	}
}
