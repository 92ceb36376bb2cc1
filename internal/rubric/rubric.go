// Package rubric holds the static scoring tables: the loaded-language lexicon,
// the rule catalogue with default deductions and the per-category caps.
package rubric

import (
	"strings"

	"NewsIntegrity/internal/domain"
)

const (
	// InitialScore is the nominal starting score reported on every result.
	InitialScore = 100
	// Baseline is the unscored structural allowance added to the category scores.
	Baseline = 10
	// RedraftThreshold: articles scoring strictly below it are rewritten.
	RedraftThreshold = 70

	// LoadedTermDeduction is charged per distinct loaded term found.
	LoadedTermDeduction = 2
	// MaxLoadedTerms caps how many terms are charged and reported.
	MaxLoadedTerms = 6
)

// Rule describes one rubric entry.
type Rule struct {
	Type        domain.ViolationType
	Category    domain.Category
	Deduction   int
	Description string
	// Lexical rules are detected by the scanner, never by the classifier.
	Lexical bool
}

var loadedTerms = [...]string{
	"blasts", "slams", "destroys", "disastrous", "shocking", "bombshell",
	"scheme", "crisis", "explosive", "outrage", "rages", "fiery", "scathing",
	"surge", "surged", "flood", "flooded", "invasion", "invaded", "radical",
	"extremist", "controversial", "stunning", "unprecedented", "chaos",
	"chaotic", "slammed", "attacked", "ripped", "torched", "eviscerated",
	"shredded", "crushed", "demolished", "annihilated", "obliterated",
}

var rules = [...]Rule{
	{domain.ViolationSingleSource, domain.CategoryVerification, 15, "Story relies on one source without corroboration", false},
	{domain.ViolationUnchallengedNarrative, domain.CategoryVerification, 10, "Repeats press releases without a second source", false},
	{domain.ViolationUnverifiedStatistics, domain.CategoryVerification, 10, "Cites numbers from interested parties without verification", false},
	{domain.ViolationAnonymousSourcing, domain.CategoryVerification, 5, "Uses anonymous officials without explaining why anonymity was granted", false},
	{domain.ViolationLoadedLanguage, domain.CategoryNeutrality, LoadedTermDeduction, "Emotive language detected outside of quotes", true},
	{domain.ViolationStrawMan, domain.CategoryNeutrality, 10, "Misrepresents opposing views", false},
	{domain.ViolationOpinionAsNews, domain.CategoryNeutrality, 20, "Subjective prescriptions presented as news", false},
	{domain.ViolationLackOfReply, domain.CategoryFairness, 10, "Negative claims without seeking comment", false},
	{domain.ViolationHeadlineBait, domain.CategoryFairness, 10, "Headline implies a conclusion the body does not support", false},
}

var caps = map[domain.Category]int{
	domain.CategoryVerification: 40,
	domain.CategoryNeutrality:   30,
	domain.CategoryFairness:     20,
}

// Categories lists the scored categories in report order.
var Categories = []domain.Category{
	domain.CategoryVerification,
	domain.CategoryNeutrality,
	domain.CategoryFairness,
}

// LoadedTerms returns a copy of the lexicon in its canonical order.
func LoadedTerms() []string {
	out := make([]string, len(loadedTerms))
	copy(out, loadedTerms[:])
	return out
}

// SemanticRules returns the rules the classifier is allowed to report.
func SemanticRules() []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Lexical {
			out = append(out, r)
		}
	}
	return out
}

// Lookup finds a rule by type, ignoring case and surrounding space.
func Lookup(t string) (Rule, bool) {
	t = strings.TrimSpace(t)
	for _, r := range rules {
		if strings.EqualFold(string(r.Type), t) {
			return r, true
		}
	}
	return Rule{}, false
}

// Cap returns the maximum score of a category, zero for unknown categories.
func Cap(c domain.Category) int {
	return caps[c]
}

// MaxScore is the highest final score the rubric allows.
func MaxScore() int {
	total := Baseline
	for _, c := range Categories {
		total += caps[c]
	}
	return total
}
