package matching

import (
	"strings"

	"skillpulse/internal/domain/posting"
)

var (
	fullstackKeywords = []string{
		"full stack", "full-stack",
		"work across the stack", "both sides", "end-to-end", "end to end",
	}
	backendKeywords = []string{
		"backend", "back end", "server-side", "platform", "api", "services", "microservices",
		"cloud", "aws", "devops", "devsecops", "sre", "reliability",
		"java", "spring", "spring boot", "hibernate", "jpa", "sql", "postgres", "oracle",
	}
	frontendKeywords = []string{
		"frontend", "front end", "ui", "web", "client-side",
		"react", "typescript", "javascript", "html", "css", "angular", "next.js",
	}
)

// ClassifyRole buckets a posting by plain substring hits over the lowercased
// title and description. Fullstack phrases win outright; otherwise the side
// with more distinct keyword hits wins and ties go to backend.
func ClassifyRole(title, description string) posting.RoleBucket {
	text := combine(title, description)

	if containsAny(text, fullstackKeywords) {
		return posting.RoleFullstack
	}

	be := countPresent(text, backendKeywords)
	fe := countPresent(text, frontendKeywords)

	if be >= fe && be > 0 {
		return posting.RoleBackend
	}
	if fe > 0 {
		return posting.RoleFrontend
	}
	return posting.RoleAny
}

func combine(title, description string) string {
	return strings.ToLower(title + "\n" + description)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func countPresent(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}
