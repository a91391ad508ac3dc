package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"skillpulse/internal/domain/posting"
)

const defaultRemotiveBaseURL = "https://remotive.com"

type RemotiveAdapter struct {
	baseURL string
	http    requester
	s       Settings
}

func NewRemotiveAdapter(s Settings) *RemotiveAdapter {
	base := strings.TrimRight(strings.TrimSpace(s.RemotiveBaseURL), "/")
	if base == "" {
		base = defaultRemotiveBaseURL
	}
	return &RemotiveAdapter{baseURL: base, http: newRequester("remotive", s), s: s}
}

func (a *RemotiveAdapter) Name() string { return "remotive" }

// Fetch makes a single request; the role bucket is used as a loose search term.
func (a *RemotiveAdapter) Fetch(ctx context.Context, q posting.IngestionQuery) ([]json.RawMessage, error) {
	u := a.baseURL + "/api/remote-jobs"
	if q.RoleBucket() != posting.RoleAny {
		u += "?" + url.Values{"search": {string(q.RoleBucket())}}.Encode()
	}

	b, err := a.http.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}
	var p page
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode remotive response: %w", err)
	}

	cutoff := recencyCutoff(a.s.now(), q.Days())
	out := make([]json.RawMessage, 0)
	for _, j := range p.Jobs {
		if keepByDate(j, cutoff, "publication_date") {
			out = append(out, j)
		}
		if len(out) >= q.MaxResults() {
			break
		}
	}
	return out, nil
}
