package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillpulse/internal/app"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/infrastructure/storage"
	"skillpulse/internal/insights"
)

func main() {
	location := flag.String("location", posting.DefaultLocation, "location substring to match")
	role := flag.String("role", "any", "role bucket: any|backend|frontend|fullstack")
	level := flag.String("level", "any", "level bucket: any|entry|junior_mid")
	days := flag.Int("days", posting.DefaultDays, "recency window in days")
	top := flag.Int("top", 5, "number of skills to report")
	out := flag.String("out", "-", "destination: - (stdout), a file path, or s3://bucket/key")
	migrations := flag.String("migrations", "migrations", "migrations directory")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.LUTC)

	q, err := app.QueryFromFlags(*location, *role, *level, *days, posting.DefaultMaxResults)
	if err != nil {
		logger.Fatalf("invalid query: %v", err)
	}
	if *top <= 0 {
		logger.Fatalf("invalid -top %d: must be > 0", *top)
	}

	cfg, err := app.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx, cfg, app.Options{AppName: cfg.App.AppName + "-insights", Logger: logger, MigrationsDir: *migrations})
	if err != nil {
		logger.Fatalf("failed to init container: %v", err)
	}
	defer func() { _ = c.Close() }()

	report, err := insights.BuildReport(ctx, c.ReportStore(), q, *top, time.Now())
	if err != nil {
		logger.Fatalf("failed to build report: %v", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Fatalf("failed to encode report: %v", err)
	}

	sink := storage.ReportSink{Stdout: os.Stdout, S3Region: cfg.Report.S3Region}
	if err := sink.Write(ctx, *out, buf.Bytes()); err != nil {
		logger.Fatalf("failed to write report: %v", err)
	}
	if *out != "-" && *out != "" {
		logger.Printf("report status=written dest=%s skills=%d", *out, len(report.Skills))
	}
}
