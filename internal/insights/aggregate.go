package insights

import (
	"context"
	"math"
	"sort"

	"skillpulse/internal/domain/posting"
	"skillpulse/internal/repository"
)

type SkillStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Pct   int    `json:"pct"`
}

// Store is the read side the aggregator needs. Every method applies the same
// posting filter.
type Store interface {
	CountMatching(ctx context.Context, q posting.IngestionQuery) (int, error)
	CountDistinctCompanies(ctx context.Context, q posting.IngestionQuery) (int, error)
	SkillPostingCounts(ctx context.Context, q posting.IngestionQuery) ([]repository.SkillPostingCount, error)
}

// Aggregate ranks skills by the share of matching postings that mention them.
func Aggregate(ctx context.Context, store Store, q posting.IngestionQuery, topN int) ([]SkillStat, error) {
	total, err := store.CountMatching(ctx, q)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []SkillStat{}, nil
	}

	counts, err := store.SkillPostingCounts(ctx, q)
	if err != nil {
		return nil, err
	}
	return rankSkills(counts, total, topN), nil
}

// rankSkills divides by total, which includes postings with no skills.
// Percentages round half to even.
func rankSkills(counts []repository.SkillPostingCount, total, topN int) []SkillStat {
	if total <= 0 {
		return []SkillStat{}
	}

	items := make([]SkillStat, 0, len(counts))
	for _, c := range counts {
		if c.Postings <= 0 {
			continue
		}
		pct := math.RoundToEven(100 * float64(c.Postings) / float64(total))
		items = append(items, SkillStat{Name: c.Skill, Count: c.Postings, Pct: int(pct)})
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Pct != b.Pct {
			return a.Pct > b.Pct
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})

	if topN >= 0 && len(items) > topN {
		items = items[:topN]
	}
	return items
}

type repositoryStore struct {
	repository.PostingRepository
	skills repository.PostingSkillRepository
}

// NewStore joins the posting and posting-skill repositories into a Store.
func NewStore(postings repository.PostingRepository, skills repository.PostingSkillRepository) Store {
	return repositoryStore{PostingRepository: postings, skills: skills}
}

func (s repositoryStore) SkillPostingCounts(ctx context.Context, q posting.IngestionQuery) ([]repository.SkillPostingCount, error) {
	return s.skills.SkillPostingCounts(ctx, q)
}
