package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"skillpulse/internal/domain"
	"skillpulse/internal/repository"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PipelineStatusUsecase interface {
	GetStatus(ctx context.Context) (*domain.PipelineStatus, error)
}

type PipelineStatus struct {
	repo  repository.PostingStatsRepository
	db    Pinger
	redis Pinger
	log   *log.Logger
	now   func() time.Time
}

func NewPipelineStatusUsecase(repo repository.PostingStatsRepository, db Pinger, redis Pinger, logger *log.Logger) *PipelineStatus {
	if logger == nil {
		logger = log.Default()
	}
	return &PipelineStatus{repo: repo, db: db, redis: redis, log: logger, now: time.Now}
}

// GetStatus fails only when the posting totals cannot be read. Breakdown
// queries that fail are logged and left empty.
func (u *PipelineStatus) GetStatus(ctx context.Context) (*domain.PipelineStatus, error) {
	total, err := u.repo.TotalPostings(ctx)
	if err != nil {
		return nil, err
	}

	var (
		today     int
		skillRows int
		sources   []domain.SourceStat
		roles     []domain.BucketStat
		levels    []domain.BucketStat
	)

	wg := sync.WaitGroup{}
	run := func(step string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				u.log.Printf("pipeline_status step=%s status=error err=%v", step, err)
			}
		}()
	}

	run("postings_today", func() (err error) { today, err = u.repo.PostingsToday(ctx); return })
	run("skill_rows", func() (err error) { skillRows, err = u.repo.SkillRowCount(ctx); return })
	run("sources", func() (err error) { sources, err = u.repo.SourceStats(ctx); return })
	run("roles", func() (err error) { roles, err = u.repo.CountBy(ctx, "role_bucket"); return })
	run("levels", func() (err error) { levels, err = u.repo.CountBy(ctx, "level_bucket"); return })

	var databaseHealthy, redisHealthy bool
	run("database_ping", func() error { databaseHealthy = ping(ctx, u.db); return nil })
	run("redis_ping", func() error { redisHealthy = ping(ctx, u.redis); return nil })

	wg.Wait()

	return &domain.PipelineStatus{
		TotalPostings:   total,
		PostingsToday:   today,
		SkillRows:       skillRows,
		Sources:         nonNil(sources),
		Roles:           nonNil(roles),
		Levels:          nonNil(levels),
		DatabaseHealthy: databaseHealthy,
		RedisHealthy:    redisHealthy,
		ServerTime:      u.now().UTC(),
	}, nil
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(pingCtx) == nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
