package llm

import (
	"fmt"
	"strings"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/rubric"
)

var categoryTitles = map[domain.Category]string{
	domain.CategoryVerification: "DISCIPLINE OF VERIFICATION",
	domain.CategoryNeutrality:   "NEUTRALITY & TONE",
	domain.CategoryFairness:     "FAIRNESS & CONSISTENCY",
}

// scoringSystemPrompt renders the rubric table into the classifier persona.
// Loaded language is detected lexically and left out.
func scoringSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are a strict journalism professor grading news articles against the SPJ Code of Ethics and "The Elements of Journalism".

Find violations of professional standards. Be objective and cite exact text for every violation.

RULES:
1. Never treat words inside direct quotes as the reporter's language; speakers may be emotional.
2. Wire services (AP, Reuters) are the reference point for factual claims.
3. Judge strong wording in the context of the story.
4. Do not report loaded language; it is scored separately.

RUBRIC:
`)
	for _, category := range rubric.Categories {
		fmt.Fprintf(&b, "\n%s (max %d points deducted)\n", categoryTitles[category], rubric.Cap(category))
		for _, rule := range rubric.SemanticRules() {
			if rule.Category != category {
				continue
			}
			fmt.Fprintf(&b, "- %s: -%d pts. %s\n", rule.Type, rule.Deduction, rule.Description)
		}
	}
	fmt.Fprintf(&b, "\nArticles scoring below %d trigger a neutral redraft.\n\nRespond ONLY with valid JSON.", rubric.RedraftThreshold)
	return b.String()
}

func classifyPrompt(req domain.ClassificationRequest) string {
	types := make([]string, 0, len(rubric.SemanticRules()))
	for _, rule := range rubric.SemanticRules() {
		types = append(types, fmt.Sprintf("%q", rule.Type))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this article from %s:\n\nHEADLINE: %s\n\nBODY:\n%s\n", req.OutletName, req.Headline, req.Body)
	if history := strings.TrimSpace(req.HistoricalContext); history != "" {
		fmt.Fprintf(&b, "\nHISTORICAL CONTEXT (how this outlet covered similar topics):\n%s\n", history)
	}
	fmt.Fprintf(&b, `
Identify every journalism violation. Each violation has:
- type: one of %s
- category: "verification", "neutrality" or "fairness"
- description: a specific explanation
- deduction: points deducted per the rubric
- instances: exact text examples from the article

Return {"violations": []} when there are none.`, strings.Join(types, ", "))
	return b.String()
}

const redraftSystemPrompt = `You are an AP Stylebook editor. Rewrite biased news articles so they are neutral and factual.

RULES:
1. Preserve every fact and keep every quote exactly as written.
2. Replace loaded or emotive words with neutral alternatives.
3. Add no opinion or analysis of your own.
4. Keep roughly the same structure and length.
5. Follow AP style for word choice.

TYPICAL REPLACEMENTS:
- "Blasts", "Slams" -> "Criticizes"
- "Scheme" -> "Plan" or "Policy"
- "Disastrous", "Shocking" -> remove or state the specific fact
- "Fiery" -> "Strongly worded"
- "Rages" -> "Said"
- "Flood" -> "Increase" unless literal
- "Invasion" -> remove unless military
- "Crisis" -> state the specific fact
- "Bombshell" -> "Report" or "Announcement"

Respond ONLY with valid JSON.`

func redraftPrompt(req domain.RedraftRequest) string {
	var lines []string
	for _, v := range req.Violations {
		instances := v.Instances
		if len(instances) > 3 {
			instances = instances[:3]
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (instances: %s)", v.Type, v.Description, strings.Join(instances, ", ")))
	}

	return fmt.Sprintf(`Rewrite this article to be neutral and factual.

ORIGINAL HEADLINE:
%s

ORIGINAL BODY:
%s

VIOLATIONS TO FIX:
%s

Return redraft_headline, redraft_body and changes_made (a list of the specific edits you made).`,
		req.Headline, req.Body, strings.Join(lines, "\n"))
}
