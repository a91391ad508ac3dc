package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"skillpulse/internal/pipeline"
)

const EventInsightsUpdated = "insights_updated"

type InsightsUpdatedEvent struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Inserted  int    `json:"inserted"`
	Processed int    `json:"processed"`
	Timestamp string `json:"timestamp"`
}

type CacheInvalidator interface {
	InvalidateInsights(ctx context.Context) error
}

// RunNotifier drops cached reports and tells subscribers after each full
// pipeline run.
type RunNotifier struct {
	hub    *Hub
	cache  CacheInvalidator
	logger *log.Logger
}

func NewRunNotifier(hub *Hub, cache CacheInvalidator, logger *log.Logger) *RunNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &RunNotifier{hub: hub, cache: cache, logger: logger}
}

func (n *RunNotifier) PipelineCompleted(ctx context.Context, summary pipeline.FullRunSummary) {
	if n.cache != nil {
		if err := n.cache.InvalidateInsights(ctx); err != nil {
			n.logger.Printf("ws level=warn status=cache_invalidate_failed run_id=%s err=%v", summary.RunID, err)
		}
	}

	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	evt := InsightsUpdatedEvent{
		Type:      EventInsightsUpdated,
		RunID:     summary.RunID,
		Inserted:  summary.Ingest.Inserted,
		Processed: summary.Extraction.PostingsProcessed,
		Timestamp: finished.UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
