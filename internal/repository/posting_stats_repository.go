package repository

import (
	"context"
	"database/sql"
	"fmt"

	"skillpulse/internal/database"
	"skillpulse/internal/domain"
)

type PostingStatsRepository interface {
	TotalPostings(ctx context.Context) (int, error)
	PostingsToday(ctx context.Context) (int, error)
	SkillRowCount(ctx context.Context) (int, error)
	SourceStats(ctx context.Context) ([]domain.SourceStat, error)
	CountBy(ctx context.Context, column string) ([]domain.BucketStat, error)
	Sample(ctx context.Context, limit int) ([]PostingSample, error)
}

type PostingSample struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

type PostgresPostingStatsRepository struct {
	db database.DB
}

func NewPostgresPostingStatsRepository(db database.DB) *PostgresPostingStatsRepository {
	return &PostgresPostingStatsRepository{db: db}
}

var groupableColumns = map[string]struct{}{
	"role_bucket":  {},
	"level_bucket": {},
	"source":       {},
}

func (r *PostgresPostingStatsRepository) TotalPostings(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM postings`)
}

func (r *PostgresPostingStatsRepository) PostingsToday(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM postings WHERE retrieved_at >= CURRENT_DATE`)
}

func (r *PostgresPostingStatsRepository) SkillRowCount(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posting_skills`)
}

func (r *PostgresPostingStatsRepository) count(ctx context.Context, q string) (int, error) {
	var c int
	if err := r.db.QueryRow(ctx, q).Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (r *PostgresPostingStatsRepository) SourceStats(ctx context.Context) ([]domain.SourceStat, error) {
	rows, err := r.db.Query(ctx, `SELECT source, COUNT(*) AS total, MAX(retrieved_at) AS last_retrieved_at FROM postings GROUP BY source ORDER BY total DESC, source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SourceStat, 0)
	for rows.Next() {
		var st domain.SourceStat
		var last sql.NullTime
		if err := rows.Scan(&st.Source, &st.TotalPostings, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time.UTC()
			st.LastRetrievedAt = &t
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountBy groups postings by one of role_bucket, level_bucket or source.
func (r *PostgresPostingStatsRepository) CountBy(ctx context.Context, column string) ([]domain.BucketStat, error) {
	if _, ok := groupableColumns[column]; !ok {
		return nil, fmt.Errorf("cannot group postings by %q", column)
	}

	rows, err := r.db.Query(ctx, `SELECT `+column+`, COUNT(*) AS n FROM postings GROUP BY `+column+` ORDER BY n DESC, `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.BucketStat, 0)
	for rows.Next() {
		var b domain.BucketStat
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPostingStatsRepository) Sample(ctx context.Context, limit int) ([]PostingSample, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx, `SELECT title, company, url FROM postings ORDER BY retrieved_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PostingSample, 0, limit)
	for rows.Next() {
		var s PostingSample
		if err := rows.Scan(&s.Title, &s.Company, &s.URL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
