package matching

import (
	"regexp"

	"skillpulse/internal/domain/posting"
)

var (
	seniorKeywords = []string{"senior", " sr", "lead", "staff", "principal", "architect", "manager", "director"}

	entryTokens = []string{
		"new grad", "graduate", "university grad", "early career",
		"entry level", "entry-level", "junior", "jr", "associate",
		" l1", " level 1", " engineer i", " engineer 1", " i ", " 1 ",
	}

	entryYearsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b0\s*-\s*2\s+years?\b`),
		regexp.MustCompile(`(?i)\b1\s*-\s*3\s+years?\b`),
		regexp.MustCompile(`(?i)\b2\s*-\s*3\s+years?\b`),
	}
)

// ClassifyLevel never returns junior_mid. Seniority keywords are checked
// before any entry-level signal.
func ClassifyLevel(title, description string) posting.LevelBucket {
	text := combine(title, description)

	if containsAny(text, seniorKeywords) {
		return posting.LevelSeniorExcluded
	}

	for _, re := range entryYearsPatterns {
		if re.MatchString(text) {
			return posting.LevelEntry
		}
	}

	if containsAny(text, entryTokens) {
		return posting.LevelEntry
	}

	return posting.LevelAny
}
