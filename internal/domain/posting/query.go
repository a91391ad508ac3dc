package posting

import (
	"fmt"
	"strings"

	"skillpulse/internal/domain"
)

type RoleBucket string

const (
	RoleBackend   RoleBucket = "backend"
	RoleFrontend  RoleBucket = "frontend"
	RoleFullstack RoleBucket = "fullstack"
	RoleAny       RoleBucket = "any"
)

type LevelBucket string

const (
	LevelEntry          LevelBucket = "entry"
	LevelJuniorMid      LevelBucket = "junior_mid"
	LevelAny            LevelBucket = "any"
	LevelSeniorExcluded LevelBucket = "senior_excluded"
)

const (
	DefaultLocation   = "Dallas, TX"
	DefaultDays       = 30
	DefaultMaxResults = 250
)

func ParseRoleBucket(s string) (RoleBucket, error) {
	v := RoleBucket(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return RoleAny, nil
	}
	switch v {
	case RoleBackend, RoleFrontend, RoleFullstack, RoleAny:
		return v, nil
	}
	return "", fmt.Errorf("%w: role_bucket %q", domain.ErrInvalidQuery, s)
}

// ParseLevelBucket accepts the query-side levels only; senior_excluded is a
// classifier output and never a valid filter.
func ParseLevelBucket(s string) (LevelBucket, error) {
	v := LevelBucket(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return LevelAny, nil
	}
	switch v {
	case LevelEntry, LevelJuniorMid, LevelAny:
		return v, nil
	}
	return "", fmt.Errorf("%w: level_bucket %q", domain.ErrInvalidQuery, s)
}

// IngestionQuery is shared by source fetches and storage filters. Fields are
// unexported so a constructed query cannot change.
type IngestionQuery struct {
	location   string
	role       RoleBucket
	level      LevelBucket
	days       int
	maxResults int
}

func NewIngestionQuery(location string, role RoleBucket, level LevelBucket, days, maxResults int) (IngestionQuery, error) {
	r, err := ParseRoleBucket(string(role))
	if err != nil {
		return IngestionQuery{}, err
	}
	l, err := ParseLevelBucket(string(level))
	if err != nil {
		return IngestionQuery{}, err
	}
	if days < 0 {
		return IngestionQuery{}, fmt.Errorf("%w: days must be >= 0, got %d", domain.ErrInvalidQuery, days)
	}
	if maxResults <= 0 {
		return IngestionQuery{}, fmt.Errorf("%w: max_results must be > 0, got %d", domain.ErrInvalidQuery, maxResults)
	}
	return IngestionQuery{
		location:   strings.TrimSpace(location),
		role:       r,
		level:      l,
		days:       days,
		maxResults: maxResults,
	}, nil
}

func (q IngestionQuery) Location() string         { return q.location }
func (q IngestionQuery) RoleBucket() RoleBucket   { return q.role }
func (q IngestionQuery) LevelBucket() LevelBucket { return q.level }
func (q IngestionQuery) Days() int                { return q.days }
func (q IngestionQuery) MaxResults() int          { return q.maxResults }

func (q IngestionQuery) String() string {
	return fmt.Sprintf("location=%q role=%s level=%s days=%d max_results=%d", q.location, q.role, q.level, q.days, q.maxResults)
}
