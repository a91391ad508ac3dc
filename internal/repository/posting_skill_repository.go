package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"skillpulse/internal/database"
	"skillpulse/internal/domain/posting"
)

type PostingSkillRepository interface {
	UpsertSkillCounts(ctx context.Context, postingID string, counts map[string]int) (inserted, updated int, err error)
	SkillPostingCounts(ctx context.Context, q posting.IngestionQuery) ([]SkillPostingCount, error)
}

// SkillPostingCount is the number of distinct matching postings that mention
// a skill at least once.
type SkillPostingCount struct {
	Skill    string
	Postings int
}

type PostgresPostingSkillRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresPostingSkillRepository(db database.DB) *PostgresPostingSkillRepository {
	return &PostgresPostingSkillRepository{db: db, now: time.Now}
}

func (r *PostgresPostingSkillRepository) WithClock(now func() time.Time) *PostgresPostingSkillRepository {
	r.now = now
	return r
}

// UpsertSkillCounts replaces the posting's skill counts with counts: present
// pairs are overwritten and reported as updated, pairs missing from counts
// are deleted.
func (r *PostgresPostingSkillRepository) UpsertSkillCounts(ctx context.Context, postingID string, counts map[string]int) (int, int, error) {
	if len(counts) == 0 {
		if _, err := r.db.Exec(ctx, `DELETE FROM posting_skills WHERE posting_id = $1`, postingID); err != nil {
			return 0, 0, fmt.Errorf("clear skills for posting %s: %w", postingID, err)
		}
		return 0, 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	existing := map[string]struct{}{}
	rows, err := tx.Query(ctx, `SELECT skill FROM posting_skills WHERE posting_id = $1`, postingID)
	if err != nil {
		return 0, 0, err
	}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return 0, 0, err
		}
		existing[s] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	skills := make([]string, 0, len(counts))
	for s := range counts {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	inserted, updated := 0, 0
	for _, s := range skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO posting_skills (posting_id, skill, count)
			VALUES ($1, $2, $3)
			ON CONFLICT (posting_id, skill) DO UPDATE SET count = EXCLUDED.count`,
			postingID, s, counts[s],
		); err != nil {
			return 0, 0, fmt.Errorf("upsert skill %q for posting %s: %w", s, postingID, err)
		}
		if _, ok := existing[s]; ok {
			updated++
		} else {
			inserted++
		}
	}

	stale := make([]string, 0)
	for s := range existing {
		if _, ok := counts[s]; !ok {
			stale = append(stale, s)
		}
	}
	if len(stale) > 0 {
		sort.Strings(stale)
		if _, err := tx.Exec(ctx,
			`DELETE FROM posting_skills WHERE posting_id = $1 AND skill = ANY($2)`,
			postingID, stale,
		); err != nil {
			return 0, 0, fmt.Errorf("delete stale skills for posting %s: %w", postingID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (r *PostgresPostingSkillRepository) SkillPostingCounts(ctx context.Context, q posting.IngestionQuery) ([]SkillPostingCount, error) {
	where, args := postingFilter(q, r.now(), "p.")
	rows, err := r.db.Query(ctx,
		`SELECT ps.skill, COUNT(DISTINCT ps.posting_id)
		FROM posting_skills ps
		JOIN postings p ON p.id = ps.posting_id
		WHERE `+where+` AND ps.count > 0
		GROUP BY ps.skill`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SkillPostingCount, 0)
	for rows.Next() {
		var c SkillPostingCount
		if err := rows.Scan(&c.Skill, &c.Postings); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
