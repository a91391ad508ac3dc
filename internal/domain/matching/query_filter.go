package matching

import "skillpulse/internal/domain/posting"

// MatchesQuery rejects senior_excluded postings regardless of the query.
func MatchesQuery(role posting.RoleBucket, level posting.LevelBucket, qRole posting.RoleBucket, qLevel posting.LevelBucket) bool {
	if qRole != posting.RoleAny && role != qRole {
		return false
	}
	if qLevel != posting.LevelAny && level != qLevel {
		return false
	}
	if level == posting.LevelSeniorExcluded {
		return false
	}
	return true
}

func Matches(p posting.JobPosting, q posting.IngestionQuery) bool {
	return MatchesQuery(p.RoleBucket, p.LevelBucket, q.RoleBucket(), q.LevelBucket())
}
