package dto

// PipelineRunRequest is the optional JSON body of POST /api/v1/pipeline/run.
// Omitted fields fall back to the INGEST_* defaults.
type PipelineRunRequest struct {
	Sources         []string `json:"sources"`
	Location        string   `json:"location"`
	Role            string   `json:"role"`
	Level           string   `json:"level"`
	Days            *int     `json:"days"`
	MaxResults      int      `json:"max_results"`
	ExtractionLimit int      `json:"extraction_limit"`
}

type SourceRunResult struct {
	Source        string `json:"source"`
	Fetched       int    `json:"fetched"`
	NormalizeFail int    `json:"normalize_failed"`
	Matched       int    `json:"matched"`
	Inserted      int    `json:"inserted"`
	Skipped       int    `json:"skipped"`
	DurationMs    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

type PipelineRunResponse struct {
	RunID              string            `json:"run_id"`
	StartedAt          string            `json:"started_at"`
	FinishedAt         string            `json:"finished_at"`
	Inserted           int               `json:"inserted"`
	Skipped            int               `json:"skipped"`
	Sources            []SourceRunResult `json:"sources"`
	PostingsProcessed  int               `json:"postings_processed"`
	PostingsWithSkills int               `json:"postings_with_skills"`
	SkillsInserted     int               `json:"skills_inserted"`
	SkillsUpdated      int               `json:"skills_updated_or_skipped"`
}
