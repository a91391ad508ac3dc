package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"skillpulse/internal/app"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/source"
)

func main() {
	location := flag.String("location", posting.DefaultLocation, "location substring to match")
	role := flag.String("role", "any", "role bucket: any|backend|frontend|fullstack")
	level := flag.String("level", "any", "level bucket: any|entry|junior_mid")
	days := flag.Int("days", posting.DefaultDays, "recency window in days")
	maxResults := flag.Int("max-results", posting.DefaultMaxResults, "per-source cap on fetched records")
	sources := flag.String("source", "", fmt.Sprintf("comma separated sources or \"all\" (default %s; known: %s)", source.DefaultSource, strings.Join(source.Names(), ", ")))
	logPath := flag.String("log", "", "also append logs to this file")
	migrations := flag.String("migrations", "migrations", "migrations directory")
	flag.Parse()

	logger, closeLog, err := app.NewLogger(*logPath)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer func() { _ = closeLog() }()

	q, err := app.QueryFromFlags(*location, *role, *level, *days, *maxResults)
	if err != nil {
		logger.Fatalf("invalid query: %v", err)
	}

	cfg, err := app.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx, cfg, app.Options{AppName: cfg.App.AppName + "-ingest", Logger: logger, MigrationsDir: *migrations})
	if err != nil {
		logger.Fatalf("failed to init container: %v", err)
	}
	defer func() { _ = c.Close() }()

	adapters, err := c.Adapters(splitSources(*sources))
	if err != nil {
		logger.Fatalf("failed to build sources: %v", err)
	}

	summary := c.Ingest.Run(ctx, q, adapters)
	if summary.Inserted > 0 {
		if err := c.Cache.InvalidateInsights(ctx); err != nil {
			logger.Printf("cache level=warn status=invalidate_failed err=%v", err)
		}
	}

	for _, r := range summary.Sources {
		status := "ok"
		if r.Err != nil {
			status = "failed"
		}
		fmt.Printf("source=%s status=%s fetched=%d matched=%d inserted=%d skipped=%d\n", r.Source, status, r.Fetched, r.Matched, r.Inserted, r.Skipped)
	}
	fmt.Printf("inserted=%d\n", summary.Inserted)
	fmt.Printf("skipped=%d\n", summary.Skipped)
}

func splitSources(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
