package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"skillpulse/internal/app"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/pipeline"
)

// extractMaxResults fills the query's max_results, which extraction does not read.
const extractMaxResults = 10000

func main() {
	location := flag.String("location", posting.DefaultLocation, "location substring to match")
	role := flag.String("role", "any", "role bucket: any|backend|frontend|fullstack")
	level := flag.String("level", "any", "level bucket: any|entry|junior_mid")
	days := flag.Int("days", posting.DefaultDays, "recency window in days")
	limit := flag.Int("limit", 0, "process at most this many postings (0 = all)")
	sampleOut := flag.String("sample-out", "", "write a JSON sample of extracted skills to this path")
	migrations := flag.String("migrations", "migrations", "migrations directory")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.LUTC)

	q, err := app.QueryFromFlags(*location, *role, *level, *days, extractMaxResults)
	if err != nil {
		logger.Fatalf("invalid query: %v", err)
	}

	cfg, err := app.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx, cfg, app.Options{AppName: cfg.App.AppName + "-extract", Logger: logger, MigrationsDir: *migrations})
	if err != nil {
		logger.Fatalf("failed to init container: %v", err)
	}
	defer func() { _ = c.Close() }()

	summary, err := c.Extraction.Run(ctx, q, *limit)
	if err != nil {
		logger.Fatalf("skill extraction failed: %v", err)
	}
	if summary.PostingsProcessed > 0 {
		if err := c.Cache.InvalidateInsights(ctx); err != nil {
			logger.Printf("cache level=warn status=invalidate_failed err=%v", err)
		}
	}

	if *sampleOut != "" {
		if err := writeSample(*sampleOut, summary.Sample); err != nil {
			logger.Fatalf("failed to write sample: %v", err)
		}
	}

	fmt.Printf("postings_processed=%d\n", summary.PostingsProcessed)
	fmt.Printf("postings_with_skills=%d\n", summary.PostingsWithSkills)
	fmt.Printf("skills_inserted=%d\n", summary.SkillsInserted)
	fmt.Printf("skills_updated_or_skipped=%d\n", summary.SkillsUpdated)
	if *sampleOut != "" {
		fmt.Printf("sample_written=%s\n", *sampleOut)
	}
}

func writeSample(path string, sample []pipeline.ExtractionSample) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sample); err != nil {
		return err
	}
	return os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644)
}
