package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skillpulse/internal/domain/posting"
)

const SchemaVersion = "1.0.0"

type Report struct {
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle"`
	Window        Window      `json:"window"`
	Filters       Filters     `json:"filters"`
	Totals        Totals      `json:"totals"`
	Skills        []SkillStat `json:"skills"`
	GeneratedAt   string      `json:"generated_at"`
	SchemaVersion string      `json:"schema_version"`
}

type Window struct {
	Days int `json:"days"`
}

type Filters struct {
	Location    string `json:"location"`
	RoleBucket  string `json:"role_bucket"`
	LevelBucket string `json:"level_bucket"`
	Days        int    `json:"days"`
	MaxResults  int    `json:"max_results"`
}

type Totals struct {
	PostingsCount        int `json:"postings_count"`
	UniqueCompaniesCount int `json:"unique_companies_count"`
}

var (
	levelTitles = map[posting.LevelBucket]string{
		posting.LevelEntry:     "Junior",
		posting.LevelJuniorMid: "Junior/Mid",
	}
	roleTitles = map[posting.RoleBucket]string{
		posting.RoleBackend:   "Backend",
		posting.RoleFrontend:  "Frontend",
		posting.RoleFullstack: "Full Stack",
	}
)

func TitleForQuery(q posting.IngestionQuery) string {
	parts := make([]string, 0, 3)
	if s := levelTitles[q.LevelBucket()]; s != "" {
		parts = append(parts, s)
	}
	if s := roleTitles[q.RoleBucket()]; s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, "Software Engineer")
	return strings.Join(parts, " ")
}

func BuildReport(ctx context.Context, store Store, q posting.IngestionQuery, topN int, now time.Time) (Report, error) {
	postings, err := store.CountMatching(ctx, q)
	if err != nil {
		return Report{}, fmt.Errorf("count postings: %w", err)
	}
	companies, err := store.CountDistinctCompanies(ctx, q)
	if err != nil {
		return Report{}, fmt.Errorf("count companies: %w", err)
	}
	skills, err := Aggregate(ctx, store, q, topN)
	if err != nil {
		return Report{}, fmt.Errorf("aggregate skills: %w", err)
	}

	return Report{
		Title:    TitleForQuery(q),
		Subtitle: fmt.Sprintf("Based on %d job postings in %s from the last %d days", postings, q.Location(), q.Days()),
		Window:   Window{Days: q.Days()},
		Filters: Filters{
			Location:    q.Location(),
			RoleBucket:  string(q.RoleBucket()),
			LevelBucket: string(q.LevelBucket()),
			Days:        q.Days(),
			MaxResults:  q.MaxResults(),
		},
		Totals: Totals{
			PostingsCount:        postings,
			UniqueCompaniesCount: companies,
		},
		Skills:        skills,
		GeneratedAt:   formatGeneratedAt(now),
		SchemaVersion: SchemaVersion,
	}, nil
}

// formatGeneratedAt renders UTC with a Z suffix and microseconds when there
// are any.
func formatGeneratedAt(t time.Time) string {
	t = t.UTC().Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	return t.Format("2006-01-02T15:04:05.000000Z")
}
