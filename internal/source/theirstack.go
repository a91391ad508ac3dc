package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"skillpulse/internal/domain"
	"skillpulse/internal/domain/posting"
)

const (
	defaultTheirstackBaseURL = "https://api.theirstack.com"
	theirstackPageSize       = 50
)

type TheirstackAdapter struct {
	apiKey  string
	baseURL string
	http    requester
}

func NewTheirstackAdapter(s Settings) (*TheirstackAdapter, error) {
	key := strings.TrimSpace(s.TheirstackAPIKey)
	if key == "" {
		return nil, &domain.ConfigurationError{Key: "THEIRSTACK_API_KEY"}
	}
	base := strings.TrimRight(strings.TrimSpace(s.TheirstackBaseURL), "/")
	if base == "" {
		base = defaultTheirstackBaseURL
	}
	return &TheirstackAdapter{
		apiKey:  key,
		baseURL: base,
		http:    newRequester("theirstack", s),
	}, nil
}

func (a *TheirstackAdapter) Name() string { return "theirstack" }

type theirstackSearch struct {
	Page                 int      `json:"page"`
	Limit                int      `json:"limit"`
	PostedAtMaxAgeDays   int      `json:"posted_at_max_age_days"`
	JobTitleOr           []string `json:"job_title_or,omitempty"`
	JobSeniorityOr       []string `json:"job_seniority_or,omitempty"`
	JobLocationPatternOr []string `json:"job_location_pattern_or,omitempty"`
}

func theirstackSeniority(level posting.LevelBucket) []string {
	switch level {
	case posting.LevelEntry:
		return []string{"intern", "entry", "junior"}
	case posting.LevelJuniorMid:
		return []string{"junior", "mid_level"}
	}
	return nil
}

// Fetch pages through /v1/jobs/search until max_results, an empty page or a
// short page.
func (a *TheirstackAdapter) Fetch(ctx context.Context, q posting.IngestionQuery) ([]json.RawMessage, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.apiKey)
	header.Set("Content-Type", "application/json")

	base := theirstackSearch{
		PostedAtMaxAgeDays: q.Days(),
		JobSeniorityOr:     theirstackSeniority(q.LevelBucket()),
	}
	if q.RoleBucket() != posting.RoleAny {
		base.JobTitleOr = []string{string(q.RoleBucket())}
	}
	if q.Location() != "" {
		base.JobLocationPatternOr = []string{regexp.QuoteMeta(q.Location())}
	}

	out := make([]json.RawMessage, 0)
	for pageNo := 0; len(out) < q.MaxResults(); pageNo++ {
		req := base
		req.Page = pageNo
		req.Limit = min(theirstackPageSize, q.MaxResults()-len(out))

		body, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		b, err := a.http.do(ctx, http.MethodPost, a.baseURL+"/v1/jobs/search", body, header)
		if err != nil {
			return nil, err
		}

		var p page
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("decode theirstack page %d: %w", pageNo, err)
		}
		jobs := p.records()
		if len(jobs) == 0 {
			break
		}
		out = append(out, jobs...)
		if len(jobs) < req.Limit {
			break
		}
	}

	if len(out) > q.MaxResults() {
		out = out[:q.MaxResults()]
	}
	return out, nil
}
