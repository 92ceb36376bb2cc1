package scoring

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/rubric"
)

var (
	doubleQuoted = regexp.MustCompile(`"[^"]*"`)
	curlyQuoted  = regexp.MustCompile(`“[^”]*”`)
	singleQuoted = regexp.MustCompile(`'[^']*'`)
)

// ScanLoadedLanguage looks for lexicon terms outside quoted speech.
// Matching is by substring, so "surged" also counts "surge". It returns at
// most one violation.
func ScanLoadedLanguage(headline, body string) []domain.Violation {
	text := stripQuoted(strings.ToLower(headline + " " + body))

	type hit struct {
		term string
		pos  int
	}

	var hits []hit
	for _, term := range rubric.LoadedTerms() {
		if pos := strings.Index(text, term); pos >= 0 {
			hits = append(hits, hit{term: term, pos: pos})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	// stable sort keeps lexicon order for terms starting at the same offset
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(a.pos, b.pos)
	})

	n := min(len(hits), rubric.MaxLoadedTerms)
	instances := make([]string, 0, n)
	for _, h := range hits[:n] {
		instances = append(instances, h.term)
	}

	rule, _ := rubric.Lookup(string(domain.ViolationLoadedLanguage))
	return []domain.Violation{{
		Type:        rule.Type,
		Category:    rule.Category,
		Description: rule.Description,
		Deduction:   rubric.LoadedTermDeduction * n,
		Instances:   instances,
	}}
}

func stripQuoted(text string) string {
	text = doubleQuoted.ReplaceAllString(text, "")
	text = curlyQuoted.ReplaceAllString(text, "")
	return singleQuoted.ReplaceAllString(text, "")
}
