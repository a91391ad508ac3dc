package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"skillpulse/internal/domain/posting"
	"skillpulse/internal/domain/skill"
	"skillpulse/internal/repository"
)

const sampleSize = 20

type PostingLister interface {
	ListMatching(ctx context.Context, q posting.IngestionQuery, limit int) ([]repository.StoredPosting, error)
}

type SkillCountStore interface {
	UpsertSkillCounts(ctx context.Context, postingID string, counts map[string]int) (inserted, updated int, err error)
}

type SkillExtractionPipeline struct {
	postings PostingLister
	skills   SkillCountStore
	log      *log.Logger
}

func NewSkillExtractionPipeline(postings PostingLister, skills SkillCountStore, logger *log.Logger) *SkillExtractionPipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &SkillExtractionPipeline{postings: postings, skills: skills, log: logger}
}

type ExtractionSample struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Company         string        `json:"company"`
	ExtractedSkills []skill.Count `json:"extracted_skills"`
}

type ExtractionSummary struct {
	PostingsProcessed  int                `json:"postings_processed"`
	PostingsWithSkills int                `json:"postings_with_skills"`
	SkillsInserted     int                `json:"skills_inserted"`
	SkillsUpdated      int                `json:"skills_updated_or_skipped"`
	Sample             []ExtractionSample `json:"-"`
}

// Run re-extracts skill counts for matching postings, newest first.
// limit <= 0 processes every match.
func (p *SkillExtractionPipeline) Run(ctx context.Context, q posting.IngestionQuery, limit int) (ExtractionSummary, error) {
	start := time.Now()
	out := ExtractionSummary{Sample: make([]ExtractionSample, 0, sampleSize)}

	rows, err := p.postings.ListMatching(ctx, q, limit)
	if err != nil {
		return out, fmt.Errorf("list postings: %w", err)
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}

		counts := skill.Extract(row.Title, row.DescriptionRaw)
		byName := make(map[string]int, len(counts))
		for _, c := range counts {
			byName[c.Name] = c.Count
		}

		inserted, updated, err := p.skills.UpsertSkillCounts(ctx, row.ID, byName)
		if err != nil {
			return out, fmt.Errorf("store skills for posting %s: %w", row.ID, err)
		}

		out.PostingsProcessed++
		out.SkillsInserted += inserted
		out.SkillsUpdated += updated
		if len(counts) > 0 {
			out.PostingsWithSkills++
		}

		if len(out.Sample) < sampleSize {
			sorted := append([]skill.Count(nil), counts...)
			sort.SliceStable(sorted, func(i, j int) bool {
				if sorted[i].Count != sorted[j].Count {
					return sorted[i].Count > sorted[j].Count
				}
				return sorted[i].Name < sorted[j].Name
			})
			if sorted == nil {
				sorted = []skill.Count{}
			}
			out.Sample = append(out.Sample, ExtractionSample{ID: row.ID, Title: row.Title, Company: row.Company, ExtractedSkills: sorted})
		}
	}

	p.log.Printf("pipeline=skill_extraction status=ok processed=%d with_skills=%d inserted=%d updated=%d duration=%s",
		out.PostingsProcessed, out.PostingsWithSkills, out.SkillsInserted, out.SkillsUpdated, time.Since(start))
	return out, nil
}
