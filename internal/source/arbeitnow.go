package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"skillpulse/internal/domain/posting"
)

const defaultArbeitnowBaseURL = "https://www.arbeitnow.com"

type ArbeitnowAdapter struct {
	baseURL string
	http    requester
	s       Settings
}

func NewArbeitnowAdapter(s Settings) *ArbeitnowAdapter {
	base := strings.TrimRight(strings.TrimSpace(s.ArbeitnowBaseURL), "/")
	if base == "" {
		base = defaultArbeitnowBaseURL
	}
	return &ArbeitnowAdapter{baseURL: base, http: newRequester("arbeitnow", s), s: s}
}

func (a *ArbeitnowAdapter) Name() string { return "arbeitnow" }

// Fetch follows links.next and stops on the first page whose next link is
// missing, null or empty. Without pagination info it stops after the first
// page.
func (a *ArbeitnowAdapter) Fetch(ctx context.Context, q posting.IngestionQuery) ([]json.RawMessage, error) {
	cutoff := recencyCutoff(a.s.now(), q.Days())
	out := make([]json.RawMessage, 0)

	for pageNo := 1; len(out) < q.MaxResults(); pageNo++ {
		u := a.baseURL + "/api/job-board-api?page=" + strconv.Itoa(pageNo)
		b, err := a.http.do(ctx, http.MethodGet, u, nil, nil)
		if err != nil {
			return nil, err
		}

		var p page
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("decode arbeitnow page %d: %w", pageNo, err)
		}
		jobs := p.records()
		if len(jobs) == 0 {
			break
		}

		for _, j := range jobs {
			if keepByDate(j, cutoff, "created_at", "published_at", "date") {
				out = append(out, j)
			}
			if len(out) >= q.MaxResults() {
				break
			}
		}

		if !p.hasNext() {
			break
		}
	}
	return out, nil
}
