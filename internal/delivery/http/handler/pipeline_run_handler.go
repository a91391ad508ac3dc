package handler

import (
	"errors"
	"time"

	"skillpulse/internal/delivery/http/dto"
	"skillpulse/internal/delivery/http/middleware"
	"skillpulse/internal/pipeline"
	"skillpulse/internal/pkg/response"
	"skillpulse/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PipelineRunHandler struct {
	uc usecase.PipelineRunUsecase
}

func NewPipelineRunHandler(uc usecase.PipelineRunUsecase) *PipelineRunHandler {
	return &PipelineRunHandler{uc: uc}
}

// RegisterRoutes mounts the run endpoint behind auth.
func (h *PipelineRunHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	if r == nil || auth == nil {
		return
	}
	r.Post("/pipeline/run", auth, h.Run)
}

func (h *PipelineRunHandler) Run(c fiber.Ctx) error {
	var req dto.PipelineRunRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
	}

	summary, err := h.uc.Trigger(c.Context(), usecase.PipelineRunParams{
		Sources:         req.Sources,
		Location:        req.Location,
		Role:            req.Role,
		Level:           req.Level,
		Days:            req.Days,
		MaxResults:      req.MaxResults,
		ExtractionLimit: req.ExtractionLimit,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return middleware.NewAppError(fiber.StatusConflict, err.Error(), nil, err)
		}
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, toRunResponse(summary))
}

func toRunResponse(s pipeline.FullRunSummary) dto.PipelineRunResponse {
	out := dto.PipelineRunResponse{
		RunID:              s.RunID,
		StartedAt:          s.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:         s.FinishedAt.UTC().Format(time.RFC3339),
		Inserted:           s.Ingest.Inserted,
		Skipped:            s.Ingest.Skipped,
		Sources:            make([]dto.SourceRunResult, 0, len(s.Ingest.Sources)),
		PostingsProcessed:  s.Extraction.PostingsProcessed,
		PostingsWithSkills: s.Extraction.PostingsWithSkills,
		SkillsInserted:     s.Extraction.SkillsInserted,
		SkillsUpdated:      s.Extraction.SkillsUpdated,
	}
	for _, r := range s.Ingest.Sources {
		item := dto.SourceRunResult{
			Source:        r.Source,
			Fetched:       r.Fetched,
			NormalizeFail: r.NormalizeFail,
			Matched:       r.Matched,
			Inserted:      r.Inserted,
			Skipped:       r.Skipped,
			DurationMs:    r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out.Sources = append(out.Sources, item)
	}
	return out
}
