package app

import (
	"context"
	"log"
	"time"

	"skillpulse/internal/config"
	"skillpulse/internal/database"
	"skillpulse/internal/database/migration"
	dbpostgres "skillpulse/internal/database/postgres"
	"skillpulse/internal/infrastructure/cache"
	"skillpulse/internal/insights"
	"skillpulse/internal/normalize"
	"skillpulse/internal/pipeline"
	"skillpulse/internal/repository"
	"skillpulse/internal/source"
	"skillpulse/internal/ws"
)

type Options struct {
	AppName       string
	Logger        *log.Logger
	MigrationsDir string
	SkipMigrate   bool
}

// Container holds the shared dependencies of every entry point.
type Container struct {
	Config config.Config
	Logger *log.Logger
	DB     database.DB
	Cache  *cache.Redis
	Hub    *ws.Hub

	Postings *repository.PostgresPostingRepository
	Skills   *repository.PostgresPostingSkillRepository
	Stats    *repository.PostgresPostingStatsRepository

	Ingest     *pipeline.IngestPipeline
	Extraction *pipeline.SkillExtractionPipeline
	FullRun    *pipeline.FullPipeline
}

func NewContainer(ctx context.Context, cfg config.Config, opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	appName := opts.AppName
	if appName == "" {
		appName = cfg.App.AppName
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connectCtx, cfg.Database, appName)
	if err != nil {
		return nil, err
	}

	if !opts.SkipMigrate {
		runner := migration.Runner{Dir: opts.MigrationsDir, Logger: logger}
		if err := runner.Run(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Cache:    cache.NewRedis(ctx, cfg.Redis, logger),
		Hub:      ws.NewHub(logger),
		Postings: repository.NewPostgresPostingRepository(db),
		Skills:   repository.NewPostgresPostingSkillRepository(db),
		Stats:    repository.NewPostgresPostingStatsRepository(db),
	}

	c.Ingest = pipeline.NewIngestPipeline(normalize.New(), c.Postings, logger)
	c.Extraction = pipeline.NewSkillExtractionPipeline(c.Postings, c.Skills, logger)
	c.FullRun = pipeline.NewFullPipeline(c.Ingest, c.Extraction, c.Adapters, logger,
		ws.NewRunNotifier(c.Hub, c.Cache, logger))

	return c, nil
}

// Adapters builds source adapters from the configured credentials.
func (c *Container) Adapters(names []string) ([]source.Adapter, error) {
	return source.NewMany(names, source.SettingsFromConfig(c.Config.Sources, c.Logger))
}

func (c *Container) ReportStore() insights.Store {
	return insights.NewStore(c.Postings, c.Skills)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
