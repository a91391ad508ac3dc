package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"skillpulse/internal/config"
	"skillpulse/internal/domain"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/pipeline"
)

type PipelineRunner interface {
	Run(ctx context.Context, params pipeline.FullRunParams) (pipeline.FullRunSummary, error)
}

// PipelineRunParams overrides the scheduled defaults. Zero values keep the
// default.
type PipelineRunParams struct {
	Sources         []string `json:"sources"`
	Location        string   `json:"location"`
	Role            string   `json:"role"`
	Level           string   `json:"level"`
	Days            *int     `json:"days"`
	MaxResults      int      `json:"max_results"`
	ExtractionLimit int      `json:"extraction_limit"`
}

type PipelineRunUsecase interface {
	Trigger(ctx context.Context, params PipelineRunParams) (pipeline.FullRunSummary, error)
}

type PipelineRun struct {
	runner   PipelineRunner
	defaults config.ScheduleConfig
	log      *log.Logger
}

func NewPipelineRunUsecase(runner PipelineRunner, defaults config.ScheduleConfig, logger *log.Logger) *PipelineRun {
	if logger == nil {
		logger = log.Default()
	}
	return &PipelineRun{runner: runner, defaults: defaults, log: logger}
}

func (u *PipelineRun) Trigger(ctx context.Context, params PipelineRunParams) (pipeline.FullRunSummary, error) {
	full, err := u.resolve(params)
	if err != nil {
		return pipeline.FullRunSummary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	summary, err := u.runner.Run(ctx, full)
	if err != nil {
		var unknown *domain.UnknownSourceError
		if errors.As(err, &unknown) {
			return summary, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return summary, err
	}
	return summary, nil
}

func (u *PipelineRun) resolve(p PipelineRunParams) (pipeline.FullRunParams, error) {
	d := u.defaults

	sources := d.Sources
	if len(p.Sources) > 0 {
		sources = p.Sources
	}
	loc := d.Location
	if s := strings.TrimSpace(p.Location); s != "" {
		loc = s
	}
	roleRaw := d.Role
	if p.Role != "" {
		roleRaw = p.Role
	}
	levelRaw := d.Level
	if p.Level != "" {
		levelRaw = p.Level
	}
	days := d.Days
	if p.Days != nil {
		days = *p.Days
	}
	maxResults := d.MaxResults
	if p.MaxResults != 0 {
		maxResults = p.MaxResults
	}
	if p.ExtractionLimit < 0 {
		return pipeline.FullRunParams{}, fmt.Errorf("extraction_limit must be >= 0, got %d", p.ExtractionLimit)
	}

	role, err := posting.ParseRoleBucket(roleRaw)
	if err != nil {
		return pipeline.FullRunParams{}, err
	}
	level, err := posting.ParseLevelBucket(levelRaw)
	if err != nil {
		return pipeline.FullRunParams{}, err
	}
	q, err := posting.NewIngestionQuery(loc, role, level, days, maxResults)
	if err != nil {
		return pipeline.FullRunParams{}, err
	}
	return pipeline.FullRunParams{Query: q, Sources: sources, ExtractionLimit: p.ExtractionLimit}, nil
}
