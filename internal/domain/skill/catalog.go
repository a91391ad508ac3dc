package skill

import "regexp"

type pattern struct {
	re *regexp.Regexp
	// Optional context checks applied to the text right after a match.
	followedBy    *regexp.Regexp
	notFollowedBy *regexp.Regexp
}

type Entry struct {
	Name     string
	patterns []pattern
}

func p(expr string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr)}
}

func pFollowedBy(expr, next string) pattern {
	return pattern{
		re:         regexp.MustCompile(`(?i)` + expr),
		followedBy: regexp.MustCompile(`(?i)^` + next),
	}
}

func pNotFollowedBy(expr, next string) pattern {
	return pattern{
		re:            regexp.MustCompile(`(?i)` + expr),
		notFollowedBy: regexp.MustCompile(`(?i)^` + next),
	}
}

// catalog order is the output order of Extract. A skill may share patterns
// with another one (Kubernetes also counts under containers).
var catalog = []Entry{
	{Name: "Python", patterns: []pattern{p(`\bpython(?:3)?\b`)}},
	{Name: "Java", patterns: []pattern{pNotFollowedBy(`\bjava\b`, `\s*script`)}},
	{Name: "JavaScript / TypeScript", patterns: []pattern{
		p(`\bjavascript\b`),
		p(`\btypescript\b`),
		p(`\bjs\b`),
		p(`\bts\b`),
	}},
	{Name: "Node.js", patterns: []pattern{p(`\bnode(?:\.js|js)?\b`)}},
	{Name: "React", patterns: []pattern{p(`\breact(?:\.js|js)?\b`)}},
	{Name: "Angular", patterns: []pattern{p(`\bangular(?:\.js|js)?\b`)}},
	{Name: "SQL / Databases", patterns: []pattern{
		p(`\bsql\b`),
		p(`\bpostgres(?:ql)?\b`),
		p(`\bmysql\b`),
		p(`\boracle\b`),
		p(`\bmongodb\b`),
		p(`\bdynamodb\b`),
		p(`\brds\b`),
		p(`\bredis\b`),
		p(`\bdb2\b`),
		p(`\bsnowflake\b`),
	}},
	{Name: "REST APIs", patterns: []pattern{
		p(`\brest(?:ful)?\b`),
		p(`\brest\s*api(?:s)?\b`),
		p(`\bweb\s+services?\b`),
		p(`\bhttp\s+api(?:s)?\b`),
	}},
	{Name: "Git / Version Control", patterns: []pattern{
		p(`\bgit\b`),
		p(`\bgithub\b`),
		p(`\bgitlab\b`),
		p(`\bsvn\b`),
		p(`\btortoisesvn\b`),
		p(`\bmercurial\b`),
	}},
	{Name: "Docker / Containers", patterns: []pattern{
		p(`\bdocker\b`),
		p(`\bcontainer(?:s|ization)?\b`),
		p(`\bkubernetes\b`),
		p(`\bk8s\b`),
		p(`\bpodman\b`),
	}},
	{Name: "AWS", patterns: []pattern{p(`\baws\b`), p(`\bamazon\s+web\s+services\b`)}},
	{Name: "Terraform", patterns: []pattern{p(`\bterraform\b`)}},
	{Name: "Kubernetes", patterns: []pattern{p(`\bkubernetes\b`), p(`\bk8s\b`)}},
	{Name: "CI/CD", patterns: []pattern{
		p(`\bci/?cd\b`),
		p(`\bjenkins\b`),
		p(`\bgithub\s+actions\b`),
		p(`\bcircleci\b`),
	}},
	// A bare "go" only counts in front of a role word.
	{Name: "Go", patterns: []pattern{
		p(`\bgolang\b`),
		pFollowedBy(`\bgo\b`, `\s+(?:developer|engineer|service|services|microservice|backend|programming)`),
	}},
	{Name: "C", patterns: []pattern{
		p(`\bc\s+language\b`),
		p(`\bc\s+developer\b`),
		p(`\bc\s+programming\b`),
	}},
	{Name: "C++", patterns: []pattern{p(`\bc\+\+\b`)}},
	{Name: "C#", patterns: []pattern{p(`\bc#\b`), p(`\bc\s*sharp\b`)}},
	{Name: "Spring", patterns: []pattern{p(`\bspring(?:\s+boot)?\b`)}},
	{Name: "Django", patterns: []pattern{p(`\bdjango\b`)}},
	{Name: "Flask", patterns: []pattern{p(`\bflask\b`)}},
	{Name: "GraphQL", patterns: []pattern{p(`\bgraphql\b`)}},
	{Name: "Redis", patterns: []pattern{p(`\bredis\b`)}},
	{Name: "PostgreSQL", patterns: []pattern{p(`\bpostgres(?:ql)?\b`)}},
	{Name: "MySQL", patterns: []pattern{p(`\bmysql\b`)}},
}

func Names() []string {
	out := make([]string, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.Name)
	}
	return out
}

func (pt pattern) count(text string) int {
	locs := pt.re.FindAllStringIndex(text, -1)
	if pt.followedBy == nil && pt.notFollowedBy == nil {
		return len(locs)
	}
	n := 0
	for _, loc := range locs {
		rest := text[loc[1]:]
		if pt.followedBy != nil && !pt.followedBy.MatchString(rest) {
			continue
		}
		if pt.notFollowedBy != nil && pt.notFollowedBy.MatchString(rest) {
			continue
		}
		n++
	}
	return n
}
