package repository

import (
	"fmt"
	"strings"
	"time"

	"skillpulse/internal/domain/posting"
)

// postingFilter builds the WHERE clause shared by counting, listing and
// aggregation so every read sees the same posting set. Placeholders start at
// $1; col prefixes column names (e.g. "p.").
func postingFilter(q posting.IngestionQuery, now time.Time, col string) (string, []any) {
	clauses := make([]string, 0, 6)
	args := make([]any, 0, 5)
	add := func(format string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(format, col, len(args)))
	}

	add("%slevel_bucket <> $%d", string(posting.LevelSeniorExcluded))

	if q.RoleBucket() != posting.RoleAny {
		add("%srole_bucket = $%d", string(q.RoleBucket()))
	}
	if q.LevelBucket() != posting.LevelAny {
		add("%slevel_bucket = $%d", string(q.LevelBucket()))
	}
	if loc := q.Location(); loc != "" {
		clauses = append(clauses, col+"location IS NOT NULL")
		add(`LOWER(%slocation) LIKE $%d ESCAPE '\'`, "%"+escapeLike(strings.ToLower(loc))+"%")
	}

	now = now.UTC()
	add("%sretrieved_at >= $%d", now.Add(-time.Duration(q.Days())*24*time.Hour))
	add("%sretrieved_at <= $%d", now)

	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
