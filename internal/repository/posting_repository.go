package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"skillpulse/internal/database"
	"skillpulse/internal/domain/posting"
)

type PostingRepository interface {
	UpsertPostings(ctx context.Context, postings []posting.JobPosting) (inserted, skipped int, err error)
	CountMatching(ctx context.Context, q posting.IngestionQuery) (int, error)
	ListMatching(ctx context.Context, q posting.IngestionQuery, limit int) ([]StoredPosting, error)
	CountDistinctCompanies(ctx context.Context, q posting.IngestionQuery) (int, error)
}

type StoredPosting struct {
	ID             string
	Title          string
	Company        string
	Location       *string
	RetrievedAt    time.Time
	DescriptionRaw string
	RoleBucket     posting.RoleBucket
	LevelBucket    posting.LevelBucket
}

type PostgresPostingRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresPostingRepository(db database.DB) *PostgresPostingRepository {
	return &PostgresPostingRepository{db: db, now: time.Now}
}

func (r *PostgresPostingRepository) WithClock(now func() time.Time) *PostgresPostingRepository {
	r.now = now
	return r
}

// UpsertPostings is insert-only: an existing id is left untouched and counted
// as skipped. The whole batch commits in one transaction.
func (r *PostgresPostingRepository) UpsertPostings(ctx context.Context, postings []posting.JobPosting) (int, int, error) {
	if len(postings) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	inserted, skipped := 0, 0
	for _, p := range postings {
		raw := string(p.Raw)
		if raw == "" {
			raw = "null"
		}
		n, err := tx.Exec(ctx,
			`INSERT INTO postings (
				id, source, url, title, company, location, date_posted, retrieved_at,
				role_bucket, level_bucket, description_raw, raw_json
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::json)
			ON CONFLICT (id) DO NOTHING`,
			p.ID,
			p.Source,
			p.URL,
			p.Title,
			p.Company,
			p.Location,
			p.DatePosted,
			p.RetrievedAt.UTC(),
			string(p.RoleBucket),
			string(p.LevelBucket),
			p.DescriptionRaw,
			raw,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("insert posting %s: %w", p.ID, err)
		}
		if n == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return inserted, skipped, nil
}

func (r *PostgresPostingRepository) CountMatching(ctx context.Context, q posting.IngestionQuery) (int, error) {
	where, args := postingFilter(q, r.now(), "")
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM postings WHERE `+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresPostingRepository) CountDistinctCompanies(ctx context.Context, q posting.IngestionQuery) (int, error) {
	where, args := postingFilter(q, r.now(), "")
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT company) FROM postings WHERE `+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListMatching returns matching postings, most recently retrieved first.
// limit <= 0 means no limit.
func (r *PostgresPostingRepository) ListMatching(ctx context.Context, q posting.IngestionQuery, limit int) ([]StoredPosting, error) {
	where, args := postingFilter(q, r.now(), "")
	sqlText := `SELECT id, title, company, location, retrieved_at, description_raw, role_bucket, level_bucket
		FROM postings
		WHERE ` + where + `
		ORDER BY retrieved_at DESC, id`
	if limit > 0 {
		args = append(args, limit)
		sqlText += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoredPosting, 0)
	for rows.Next() {
		var p StoredPosting
		var role, level string
		if err := rows.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.RetrievedAt, &p.DescriptionRaw, &role, &level); err != nil {
			return nil, err
		}
		p.RoleBucket = posting.RoleBucket(role)
		p.LevelBucket = posting.LevelBucket(level)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
