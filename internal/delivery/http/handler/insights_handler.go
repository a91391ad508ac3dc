package handler

import (
	"errors"
	"strconv"
	"strings"

	"skillpulse/internal/delivery/http/middleware"
	"skillpulse/internal/pkg/response"
	"skillpulse/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type InsightsHandler struct {
	uc usecase.InsightsUsecase
}

func NewInsightsHandler(uc usecase.InsightsUsecase) *InsightsHandler {
	return &InsightsHandler{uc: uc}
}

func (h *InsightsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/insights", h.GetInsights)
}

// GetInsights serves the report for ?location=&role=&level=&days=&top=.
func (h *InsightsHandler) GetInsights(c fiber.Ctx) error {
	var days *int
	if s := strings.TrimSpace(c.Query("days")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "days must be an integer", nil, err)
		}
		days = &v
	}
	top, err := parseQueryIntStrict(c, "top", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "top must be an integer", nil, err)
	}

	report, err := h.uc.GetReport(c.Context(), usecase.InsightsParams{
		Location: c.Query("location"),
		Role:     c.Query("role"),
		Level:    c.Query("level"),
		Days:     days,
		Top:      top,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, report)
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func mapUsecaseError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
