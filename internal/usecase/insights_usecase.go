package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"skillpulse/internal/domain"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/domain/skill"
	"skillpulse/internal/insights"
)

const DefaultTopSkills = 5

type ReportCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type InsightsParams struct {
	Location string
	Role     string
	Level    string
	Days     *int
	Top      int
}

type InsightsUsecase interface {
	GetReport(ctx context.Context, params InsightsParams) (insights.Report, error)
}

type Insights struct {
	store  insights.Store
	cache  ReportCache
	logger *log.Logger
	now    func() time.Time
}

func NewInsightsUsecase(store insights.Store, cache ReportCache, logger *log.Logger) *Insights {
	if logger == nil {
		logger = log.Default()
	}
	return &Insights{store: store, cache: cache, logger: logger, now: time.Now}
}

// Query turns raw request values into an IngestionQuery. Location falls back
// to the default when blank; an explicit "any" clears it.
func (p InsightsParams) Query() (posting.IngestionQuery, error) {
	role, err := posting.ParseRoleBucket(p.Role)
	if err != nil {
		return posting.IngestionQuery{}, err
	}
	level, err := posting.ParseLevelBucket(p.Level)
	if err != nil {
		return posting.IngestionQuery{}, err
	}
	loc := strings.TrimSpace(p.Location)
	switch {
	case loc == "":
		loc = posting.DefaultLocation
	case strings.EqualFold(loc, "any"):
		loc = ""
	}
	days := posting.DefaultDays
	if p.Days != nil {
		days = *p.Days
	}
	return posting.NewIngestionQuery(loc, role, level, days, posting.DefaultMaxResults)
}

func (u *Insights) GetReport(ctx context.Context, params InsightsParams) (insights.Report, error) {
	top := params.Top
	if top == 0 {
		top = DefaultTopSkills
	}
	if top < 0 || top > len(skill.Names()) {
		return insights.Report{}, ErrInvalidInput
	}
	q, err := params.Query()
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			return insights.Report{}, ErrInvalidInput
		}
		return insights.Report{}, err
	}

	key := InsightsCacheKey(q, top)
	if u.cache != nil {
		var cached insights.Report
		hit, err := u.cache.GetJSON(ctx, key, &cached)
		if err == nil && hit {
			u.logger.Printf("usecase=insights cache=hit key=%s", key)
			return cached, nil
		}
		u.logger.Printf("usecase=insights cache=miss key=%s", key)
	}

	report, err := insights.BuildReport(ctx, u.store, q, top, u.now())
	if err != nil {
		u.logger.Printf("usecase=insights level=error status=build_failed %s err=%v", q.String(), err)
		return insights.Report{}, ErrInternal
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, report, 0); err == nil {
			u.logger.Printf("usecase=insights cache=set key=%s", key)
		}
	}
	return report, nil
}
