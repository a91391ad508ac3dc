package skill

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanText replaces tags with a space, unescapes entities and collapses
// whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	noTags := htmlTagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(noTags)), " ")
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Extract returns positive counts in catalog order.
func Extract(title, description string) []Count {
	text := strings.TrimSpace(CleanText(title) + "\n" + CleanText(description))
	if text == "" {
		return nil
	}
	text = foldWordRunes(text)

	out := make([]Count, 0)
	for _, e := range catalog {
		n := 0
		for _, pt := range e.patterns {
			n += pt.count(text)
		}
		if n > 0 {
			out = append(out, Count{Name: e.Name, Count: n})
		}
	}
	return out
}

// foldWordRunes rewrites non-ASCII letters and digits to '_' so the ASCII-only
// \b in catalog patterns sees them as word characters. Runes that case-fold to
// ASCII (the Kelvin sign, long s) are kept for (?i) matching.
func foldWordRunes(text string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsNumber(r)) {
			return r
		}
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if f <= unicode.MaxASCII {
				return r
			}
		}
		return '_'
	}, text)
}

func ExtractCounts(title, description string) map[string]int {
	counts := Extract(title, description)
	out := make(map[string]int, len(counts))
	for _, c := range counts {
		out[c.Name] = c.Count
	}
	return out
}
