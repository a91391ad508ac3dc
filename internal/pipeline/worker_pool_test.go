package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"skillpulse/internal/domain/posting"
	"skillpulse/internal/normalize"
	"skillpulse/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	pool := NewWorkerPool(2, 5)
	results := pool.Run(context.Background())

	var mu sync.Mutex
	ran := map[int]bool{}
	for i := 0; i < 5; i++ {
		idx := pool.Submit(func(context.Context) error {
			mu.Lock()
			ran[i] = true
			mu.Unlock()
			if i == 3 {
				return errors.New("boom")
			}
			return nil
		})
		assert.Equal(t, i, idx)
	}
	pool.Close()

	failed := map[int]bool{}
	count := 0
	for r := range results {
		count++
		if r.Err != nil {
			failed[r.Index] = true
		}
	}
	assert.Equal(t, 5, count)
	assert.Len(t, ran, 5)
	assert.Equal(t, map[int]bool{3: true}, failed)
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 6)
	results := pool.Run(context.Background())

	var mu sync.Mutex
	active, peak := 0, 0
	for i := 0; i < 6; i++ {
		pool.Submit(func(context.Context) error {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			return nil
		})
	}
	pool.Close()
	for range results {
	}
	assert.LessOrEqual(t, peak, 2)
}

func TestWorkerPool_NilSafe(t *testing.T) {
	var p *WorkerPool
	assert.Equal(t, -1, p.Submit(func(context.Context) error { return nil }))
	p.Close()
	_, ok := <-p.Run(context.Background())
	assert.False(t, ok)
}

type slowAdapter struct {
	fakeAdapter
	delay time.Duration
}

func (a slowAdapter) Fetch(ctx context.Context, q posting.IngestionQuery) ([]json.RawMessage, error) {
	time.Sleep(a.delay)
	return a.fakeAdapter.Fetch(ctx, q)
}

func TestIngestPipeline_KeepsAdapterOrderWhenFetchingConcurrently(t *testing.T) {
	q, err := posting.NewIngestionQuery("", posting.RoleAny, posting.LevelAny, 30, 50)
	require.NoError(t, err)

	slow := slowAdapter{fakeAdapter: fakeAdapter{name: "theirstack"}, delay: 30 * time.Millisecond}
	fast := fakeAdapter{name: "remotive"}

	p := NewIngestPipeline(normalize.New(), newMemStore(), log.New(io.Discard, "", 0)).WithFetchWorkers(2)
	sum := p.Run(context.Background(), q, []source.Adapter{slow, fast})

	require.Len(t, sum.Sources, 2)
	assert.Equal(t, "theirstack", sum.Sources[0].Source)
	assert.Equal(t, "remotive", sum.Sources[1].Source)
	assert.GreaterOrEqual(t, sum.Sources[0].Duration, 30*time.Millisecond)
}

func TestIngestPipeline_CancelledContextFailsFetches(t *testing.T) {
	q, err := posting.NewIngestionQuery("", posting.RoleAny, posting.LevelAny, 30, 50)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewIngestPipeline(normalize.New(), newMemStore(), log.New(io.Discard, "", 0))
	sum := p.Run(ctx, q, []source.Adapter{fakeAdapter{name: "remotive"}})

	require.Len(t, sum.Sources, 1)
	assert.Equal(t, 0, sum.Inserted)
}
