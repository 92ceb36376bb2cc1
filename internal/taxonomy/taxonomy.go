// Package taxonomy assigns articles to the topic categories used for skew
// analysis.
package taxonomy

import "strings"

// MinMatches is the keyword hit count below which no category is assigned.
const MinMatches = 2

type category struct {
	name     string
	keywords []string
}

// Ordered by bias-risk tier; earlier entries win ties.
var categories = [...]category{
	{"elections", []string{"election", "voting", "ballot", "polls", "campaign", "primary", "caucus", "swing state", "electoral college", "voter fraud", "mail-in voting", "election integrity"}},
	{"legislation", []string{"bill", "congress", "senate", "house", "legislation", "filibuster", "veto", "executive order", "amendment", "bipartisan", "partisan", "gridlock"}},
	{"presidential_actions", []string{"president", "white house", "oval office", "executive action", "administration", "cabinet", "press secretary", "state of the union"}},
	{"supreme_court", []string{"supreme court", "scotus", "justice", "ruling", "opinion", "constitutional", "overturn", "precedent", "dissent"}},
	{"immigration", []string{"immigration", "border", "migrant", "asylum", "deportation", "sanctuary", "ice", "daca", "dreamer", "visa", "refugee"}},
	{"gun_policy", []string{"gun", "firearm", "second amendment", "nra", "shooting", "mass shooting", "gun control", "gun rights", "ar-15"}},
	{"abortion_reproductive", []string{"abortion", "roe", "dobbs", "reproductive rights", "pro-life", "pro-choice", "planned parenthood", "fetal", "trimester"}},
	{"race_civil_rights", []string{"civil rights", "racism", "discrimination", "blm", "police brutality", "systemic racism", "diversity", "equity", "inclusion", "dei", "crt"}},
	{"lgbtq", []string{"lgbtq", "transgender", "gay rights", "same-sex", "gender identity", "drag", "pride", "conversion therapy", "bathroom bill"}},
	{"economy_inflation", []string{"economy", "inflation", "recession", "gdp", "unemployment", "jobs report", "federal reserve", "interest rates", "stock market"}},
	{"healthcare", []string{"healthcare", "obamacare", "medicare", "medicaid", "insurance", "prescription drugs", "hospital", "public option", "single payer"}},
	{"climate_environment", []string{"climate change", "global warming", "emissions", "green new deal", "renewable", "fossil fuel", "epa", "carbon", "paris agreement"}},
	{"education", []string{"education", "school", "teacher", "curriculum", "book ban", "school board", "charter school", "voucher", "student loan"}},
	{"china_relations", []string{"china", "beijing", "xi jinping", "taiwan", "south china sea", "tariffs", "trade war", "tiktok", "spy balloon", "uyghur"}},
	{"russia_ukraine", []string{"russia", "ukraine", "putin", "zelensky", "nato", "crimea", "invasion", "sanctions", "military aid", "wagner"}},
	{"israel_palestine", []string{"israel", "palestine", "gaza", "hamas", "netanyahu", "west bank", "settler", "ceasefire", "idf", "hostage"}},
	{"mass_casualty", []string{"shooting", "attack", "explosion", "casualties", "victims", "breaking", "developing", "active shooter", "terror"}},
	{"natural_disaster", []string{"hurricane", "tornado", "earthquake", "wildfire", "flood", "evacuation", "fema", "emergency", "death toll"}},
}

// Classify returns the category with the most keyword hits in the headline
// and body, or "" when no category reaches MinMatches. Keywords match as
// case-insensitive substrings.
func Classify(headline, body string) string {
	text := strings.ToLower(headline + " " + body)

	best, bestHits := "", 0
	for _, c := range categories {
		hits := 0
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = c.name, hits
		}
	}

	if bestHits < MinMatches {
		return ""
	}
	return best
}

// Categories lists every category name in priority order.
func Categories() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.name
	}
	return out
}
