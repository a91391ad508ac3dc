package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"skillpulse/internal/domain"
	"skillpulse/internal/domain/matching"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/source"
)

type PostingStore interface {
	UpsertPostings(ctx context.Context, postings []posting.JobPosting) (inserted, skipped int, err error)
}

type Normalizer interface {
	Normalize(source string, raw json.RawMessage) (posting.JobPosting, error)
}

const defaultFetchWorkers = 3

type IngestPipeline struct {
	normalizer   Normalizer
	store        PostingStore
	fetchWorkers int
	log          *log.Logger
}

func NewIngestPipeline(n Normalizer, store PostingStore, logger *log.Logger) *IngestPipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &IngestPipeline{normalizer: n, store: store, fetchWorkers: defaultFetchWorkers, log: logger}
}

// WithFetchWorkers bounds how many sources are fetched at once.
func (p *IngestPipeline) WithFetchWorkers(n int) *IngestPipeline {
	if n > 0 {
		p.fetchWorkers = n
	}
	return p
}

// SourceResult is the outcome for one adapter. Err is set when the adapter
// contributed nothing because its fetch or its store write failed.
type SourceResult struct {
	Source        string        `json:"source"`
	Fetched       int           `json:"fetched"`
	NormalizeFail int           `json:"normalize_failed"`
	Matched       int           `json:"matched"`
	Inserted      int           `json:"inserted"`
	Skipped       int           `json:"skipped"`
	Duration      time.Duration `json:"duration_ns"`
	Err           error         `json:"-"`
}

type IngestSummary struct {
	Sources  []SourceResult `json:"sources"`
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
}

type fetched struct {
	raws     []json.RawMessage
	err      error
	duration time.Duration
}

// Run fetches all sources concurrently, then normalizes and stores them in
// adapter order. A failing adapter or record is logged and skipped; Run
// itself never fails.
func (p *IngestPipeline) Run(ctx context.Context, q posting.IngestionQuery, adapters []source.Adapter) IngestSummary {
	start := time.Now()
	p.log.Printf("pipeline=ingest status=started %s sources=%d", q, len(adapters))

	fetches := p.fetchAll(ctx, q, adapters)

	summary := IngestSummary{Sources: make([]SourceResult, 0, len(adapters))}
	for i, a := range adapters {
		res := p.storeSource(ctx, q, a, fetches[i])
		summary.Sources = append(summary.Sources, res)
		summary.Inserted += res.Inserted
		summary.Skipped += res.Skipped
	}

	p.log.Printf("pipeline=ingest status=finished inserted=%d skipped=%d duration=%s", summary.Inserted, summary.Skipped, time.Since(start))
	return summary
}

func (p *IngestPipeline) fetchAll(ctx context.Context, q posting.IngestionQuery, adapters []source.Adapter) []fetched {
	out := make([]fetched, len(adapters))
	pool := NewWorkerPool(p.fetchWorkers, len(adapters))
	results := pool.Run(ctx)
	for i, a := range adapters {
		pool.Submit(func(ctx context.Context) error {
			start := time.Now()
			p.log.Printf("pipeline=ingest source=%s status=fetching", a.Name())
			raws, err := a.Fetch(ctx, q)
			out[i] = fetched{raws: raws, err: err, duration: time.Since(start)}
			return err
		})
	}
	pool.Close()

	done := make([]bool, len(adapters))
	for r := range results {
		done[r.Index] = true
	}
	for i := range out {
		if !done[i] && out[i].err == nil {
			out[i].err = ctx.Err()
			if out[i].err == nil {
				out[i].err = context.Canceled
			}
		}
	}
	return out
}

func (p *IngestPipeline) storeSource(ctx context.Context, q posting.IngestionQuery, a source.Adapter, f fetched) SourceResult {
	start := time.Now().Add(-f.duration)
	res := SourceResult{Source: a.Name()}

	if f.err != nil {
		res.Err = &domain.FetchError{Source: a.Name(), Err: f.err}
		res.Duration = f.duration
		p.log.Printf("pipeline=ingest source=%s level=error status=fetch_failed err=%v", a.Name(), f.err)
		return res
	}
	raws := f.raws
	res.Fetched = len(raws)
	p.log.Printf("pipeline=ingest source=%s status=fetched raw=%d", a.Name(), len(raws))

	postings := make([]posting.JobPosting, 0, len(raws))
	for i, raw := range raws {
		jp, err := p.normalizer.Normalize(a.Name(), raw)
		if err != nil {
			res.NormalizeFail++
			p.log.Printf("pipeline=ingest source=%s level=warn status=record_skipped index=%d err=%v", a.Name(), i, err)
			var unknown *domain.UnknownSourceError
			if errors.As(err, &unknown) {
				// Every record of this adapter would fail the same way.
				break
			}
			continue
		}
		if !matching.Matches(jp, q) {
			continue
		}
		postings = append(postings, jp)
	}
	res.Matched = len(postings)

	inserted, skipped, err := p.store.UpsertPostings(ctx, postings)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		p.log.Printf("pipeline=ingest source=%s level=error status=store_failed matched=%d err=%v", a.Name(), len(postings), err)
		return res
	}
	res.Inserted, res.Skipped = inserted, skipped
	res.Duration = time.Since(start)

	p.log.Printf("pipeline=ingest source=%s status=ok inserted=%d skipped=%d matched=%d normalize_failed=%d duration=%s",
		a.Name(), inserted, skipped, len(postings), res.NormalizeFail, res.Duration)
	return res
}
