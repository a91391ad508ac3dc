package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"skillpulse/internal/config"
	"skillpulse/internal/delivery/http/handler"
	"skillpulse/internal/delivery/http/middleware"
	"skillpulse/internal/delivery/http/routes"
	"skillpulse/internal/pkg/jwt"
	"skillpulse/internal/scheduler"
	"skillpulse/internal/usecase"
	"skillpulse/internal/ws"

	"github.com/gofiber/fiber/v3"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Fiber     *fiber.App
	Scheduler *scheduler.Scheduler
}

// Handlers is everything the HTTP layer needs. Tests pass fakes here.
type Handlers struct {
	DB             handler.Pinger
	Insights       usecase.InsightsUsecase
	PipelineStatus usecase.PipelineStatusUsecase
	PipelineRun    usecase.PipelineRunUsecase
	JWT            jwt.Service
	Hub            *ws.Hub
}

func New(cfg config.Config, h Handlers, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	registerGlobalMiddleware(f, logger)

	reg := &routes.Registry{
		Health:         handler.NewHealthHandler(h.DB),
		Insights:       handler.NewInsightsHandler(h.Insights),
		PipelineStatus: handler.NewPipelineStatusHandler(h.PipelineStatus, logger),
		PipelineRun:    handler.NewPipelineRunHandler(h.PipelineRun),
	}
	if h.JWT != nil {
		reg.Auth = middleware.NewAuthMiddleware(h.JWT)
	}
	if h.Hub != nil {
		reg.WS = ws.NewHandler(h.Hub, logger, cfg.App.WSAllowedOrigins...)
	}
	reg.Register(f)

	return &App{Fiber: f}
}

// Bootstrap wires the server from a container. The returned cleanup stops the
// hub, the scheduler and the container.
func Bootstrap(ctx context.Context, c *Container) (*App, func() error, error) {
	cfg := c.Config
	jwtSvc := jwt.NewHMACService(cfg.Auth.AdminTokenSecret, cfg.Auth.AdminTokenTTL)
	if !jwtSvc.Configured() {
		c.Logger.Printf("server level=warn status=admin_disabled reason=no_admin_token_secret")
	}

	runUC := usecase.NewPipelineRunUsecase(c.FullRun, cfg.Schedule, c.Logger)
	app := New(cfg, Handlers{
		DB:             c.DB,
		Insights:       usecase.NewInsightsUsecase(c.ReportStore(), c.Cache, c.Logger),
		PipelineStatus: usecase.NewPipelineStatusUsecase(c.Stats, c.DB, c.Cache, c.Logger),
		PipelineRun:    runUC,
		JWT:            jwtSvc,
		Hub:            c.Hub,
	}, c.Logger)

	hubCtx, stopHub := context.WithCancel(ctx)
	go c.Hub.Run(hubCtx)

	app.Scheduler = scheduler.New(cfg.Schedule.Cron, func(ctx context.Context) error {
		_, err := runUC.Trigger(ctx, usecase.PipelineRunParams{})
		return err
	}, c.Logger)
	if err := app.Scheduler.Start(hubCtx); err != nil {
		stopHub()
		return nil, nil, err
	}

	cleanup := func() error {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		app.Scheduler.Stop(stopCtx)
		stopHub()
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *log.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
