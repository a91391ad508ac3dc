package source

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"skillpulse/internal/config"
	"skillpulse/internal/domain"
	"skillpulse/internal/domain/posting"
)

const DefaultSource = "theirstack"

// Adapter fetches raw upstream records for a query. Records are returned
// untouched; mapping them into postings is the normalizer's job.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q posting.IngestionQuery) ([]json.RawMessage, error)
}

type Settings struct {
	TheirstackAPIKey  string
	TheirstackBaseURL string
	RemotiveBaseURL   string
	ArbeitnowBaseURL  string

	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration

	HTTPClient *http.Client
	Sleep      func(ctx context.Context, d time.Duration) error
	Now        func() time.Time
	Logger     *log.Logger
}

func SettingsFromConfig(cfg config.SourcesConfig, logger *log.Logger) Settings {
	return Settings{
		TheirstackAPIKey:  cfg.TheirstackAPIKey,
		TheirstackBaseURL: cfg.TheirstackBaseURL,
		RemotiveBaseURL:   cfg.RemotiveBaseURL,
		ArbeitnowBaseURL:  cfg.ArbeitnowBaseURL,
		Timeout:           cfg.HTTPTimeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryBaseDelay:    cfg.RetryBaseDelay,
		Logger:            logger,
	}
}

type constructor func(s Settings) (Adapter, error)

var registry = map[string]constructor{
	"theirstack": func(s Settings) (Adapter, error) { return NewTheirstackAdapter(s) },
	"remotive":   func(s Settings) (Adapter, error) { return NewRemotiveAdapter(s), nil },
	"arbeitnow":  func(s Settings) (Adapter, error) { return NewArbeitnowAdapter(s), nil },
}

func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func New(name string, s Settings) (Adapter, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = DefaultSource
	}
	ctor, ok := registry[n]
	if !ok {
		return nil, &domain.UnknownSourceError{Name: name, Known: Names()}
	}
	return ctor(s)
}

// NewMany resolves a list of names; "all" expands to every registered source.
func NewMany(names []string, s Settings) ([]Adapter, error) {
	resolved := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if strings.EqualFold(n, "all") {
			resolved = append(resolved, Names()...)
			continue
		}
		resolved = append(resolved, n)
	}
	if len(resolved) == 0 {
		resolved = append(resolved, DefaultSource)
	}

	seen := make(map[string]struct{}, len(resolved))
	out := make([]Adapter, 0, len(resolved))
	for _, n := range resolved {
		a, err := New(n, s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[a.Name()]; dup {
			continue
		}
		seen[a.Name()] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Settings) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

type page struct {
	Data  []json.RawMessage `json:"data"`
	Jobs  []json.RawMessage `json:"jobs"`
	Links json.RawMessage   `json:"links"`
}

func (p page) records() []json.RawMessage {
	if len(p.Data) > 0 {
		return p.Data
	}
	return p.Jobs
}

func (p page) hasNext() bool {
	if len(p.Links) == 0 {
		return false
	}
	var links map[string]any
	if err := json.Unmarshal(p.Links, &links); err != nil {
		return false
	}
	switch v := links["next"].(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case nil:
		return false
	default:
		return true
	}
}
