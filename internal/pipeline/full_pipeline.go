package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"skillpulse/internal/domain/posting"
	"skillpulse/internal/source"

	"github.com/google/uuid"
)

var ErrRunInProgress = errors.New("a pipeline run is already in progress")

type AdapterFactory func(names []string) ([]source.Adapter, error)

// RunObserver is told about every completed full run.
type RunObserver interface {
	PipelineCompleted(ctx context.Context, summary FullRunSummary)
}

type FullPipeline struct {
	ingest     *IngestPipeline
	extraction *SkillExtractionPipeline
	adapters   AdapterFactory
	observers  []RunObserver
	log        *log.Logger

	mu      sync.Mutex
	running bool
}

type FullRunParams struct {
	Query           posting.IngestionQuery
	Sources         []string
	ExtractionLimit int
}

type FullRunSummary struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Ingest     IngestSummary     `json:"ingest"`
	Extraction ExtractionSummary `json:"extraction"`
}

func NewFullPipeline(ingest *IngestPipeline, extraction *SkillExtractionPipeline, adapters AdapterFactory, logger *log.Logger, observers ...RunObserver) *FullPipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &FullPipeline{
		ingest:     ingest,
		extraction: extraction,
		adapters:   adapters,
		observers:  observers,
		log:        logger,
	}
}

// Run ingests then re-extracts skills for the same query. Only one run may be
// active; a concurrent call gets ErrRunInProgress.
func (p *FullPipeline) Run(ctx context.Context, params FullRunParams) (FullRunSummary, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return FullRunSummary{}, ErrRunInProgress
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	summary := FullRunSummary{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	p.log.Printf("pipeline=full run_id=%s status=started", summary.RunID)

	adapters, err := p.adapters(params.Sources)
	if err != nil {
		p.log.Printf("pipeline=full run_id=%s step=adapters status=error err=%v", summary.RunID, err)
		return summary, err
	}

	stepStart := time.Now()
	summary.Ingest = p.ingest.Run(ctx, params.Query, adapters)
	p.log.Printf("pipeline=full run_id=%s step=ingest status=finished duration=%s", summary.RunID, time.Since(stepStart))

	stepStart = time.Now()
	summary.Extraction, err = p.extraction.Run(ctx, params.Query, params.ExtractionLimit)
	if err != nil {
		p.log.Printf("pipeline=full run_id=%s step=skill_extraction status=error err=%v", summary.RunID, err)
		return summary, err
	}
	p.log.Printf("pipeline=full run_id=%s step=skill_extraction status=finished duration=%s", summary.RunID, time.Since(stepStart))

	summary.FinishedAt = time.Now().UTC()
	for _, o := range p.observers {
		o.PipelineCompleted(ctx, summary)
	}

	p.log.Printf("pipeline=full run_id=%s status=finished inserted=%d skipped=%d processed=%d duration=%s",
		summary.RunID, summary.Ingest.Inserted, summary.Ingest.Skipped, summary.Extraction.PostingsProcessed, summary.FinishedAt.Sub(summary.StartedAt))
	return summary, nil
}
