package routes

import (
	"skillpulse/internal/delivery/http/handler"
	"skillpulse/internal/delivery/http/middleware"
	"skillpulse/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health         *handler.HealthHandler
	Insights       *handler.InsightsHandler
	PipelineStatus *handler.PipelineStatusHandler
	PipelineRun    *handler.PipelineRunHandler
	WS             *ws.Handler
	Auth           *middleware.AuthMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
	if r.WS != nil {
		app.Get("/ws/insights", r.WS.HandleInsightsWS)
	}
	r.registerV1(app.Group("/api").Group("/v1"))
}

func (r *Registry) registerV1(v1 fiber.Router) {
	if r.Insights != nil {
		r.Insights.RegisterRoutes(v1)
	}
	if r.PipelineStatus != nil {
		r.PipelineStatus.RegisterRoutes(v1)
	}
	if r.PipelineRun != nil && r.Auth != nil {
		r.PipelineRun.RegisterRoutes(v1, r.Auth.Middleware())
	}
}
