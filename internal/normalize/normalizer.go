package normalize

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"skillpulse/internal/domain"
	"skillpulse/internal/domain/matching"
	"skillpulse/internal/domain/posting"
)

var errNotObject = errors.New("record is not a JSON object")

type fieldMap struct {
	url         []string
	title       []string
	company     []string
	location    []string
	datePosted  []string
	description []string
}

var mappings = map[string]fieldMap{
	"theirstack": {
		url:         []string{"final_url", "url", "source_url"},
		title:       []string{"job_title"},
		company:     []string{"company", "company_name", "company_object"},
		location:    []string{"location", "short_location", "long_location"},
		datePosted:  []string{"date_posted"},
		description: []string{"description"},
	},
	"remotive": {
		url:         []string{"url"},
		title:       []string{"title"},
		company:     []string{"company_name"},
		location:    []string{"candidate_required_location"},
		datePosted:  []string{"publication_date"},
		description: []string{"description"},
	},
	"arbeitnow": {
		url:         []string{"url"},
		title:       []string{"title"},
		company:     []string{"company_name"},
		location:    []string{"location"},
		datePosted:  []string{"created_at", "published_at", "date"},
		description: []string{"description"},
	},
}

func Sources() []string {
	out := make([]string, 0, len(mappings))
	for k := range mappings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

func NewWithClock(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize maps one upstream record into a posting and classifies it.
// Unknown sources fail with *domain.UnknownSourceError, bad records with
// *domain.NormalizationError.
func (n *Normalizer) Normalize(source string, raw json.RawMessage) (posting.JobPosting, error) {
	m, ok := mappings[source]
	if !ok {
		return posting.JobPosting{}, &domain.UnknownSourceError{Name: source, Known: Sources()}
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		return posting.JobPosting{}, &domain.NormalizationError{Source: source, Err: err}
	}

	url := rec.text(m.url...)
	if url == "" {
		url = source + "://" + rec.text("id", "slug")
	}
	title := rec.text(m.title...)
	description := rec.text(m.description...)

	return posting.JobPosting{
		ID:             posting.MakeID(source, url),
		Source:         source,
		URL:            url,
		Title:          title,
		Company:        rec.text(m.company...),
		Location:       rec.optionalText(m.location...),
		DatePosted:     rec.optionalText(m.datePosted...),
		RetrievedAt:    n.now().UTC(),
		RoleBucket:     matching.ClassifyRole(title, description),
		LevelBucket:    matching.ClassifyLevel(title, description),
		DescriptionRaw: description,
		Raw:            append(json.RawMessage(nil), raw...),
	}, nil
}
