package ranking

import (
	"strings"
	"unicode"

	"github.com/bilgisen/postgen/internal/config"
	"github.com/bilgisen/postgen/internal/models"
)

// Matcher counts relevance-profile keyword hits in free text. Keywords match
// on word boundaries, so "ml" does not hit "html".
type Matcher struct {
	profile config.RelevanceProfile
}

func NewMatcher(profile config.RelevanceProfile) *Matcher {
	return &Matcher{profile: profile}
}

// Matches returns the number of distinct category keywords found in text
func (m *Matcher) Matches(c models.Category, text string) int {
	padded := " " + tokenize(text) + " "
	n := 0
	for _, kw := range m.profile.Keywords(c) {
		if strings.Contains(padded, " "+tokenize(kw)+" ") {
			n++
		}
	}
	return n
}

// Classify picks the category with the most keyword hits. Ties resolve in
// models.Categories order; no hits yields CategoryOther.
func (m *Matcher) Classify(text string) models.Category {
	best, bestHits := models.CategoryOther, 0
	for _, c := range models.Categories {
		if hits := m.Matches(c, text); hits > bestHits {
			best, bestHits = c, hits
		}
	}
	return best
}

// Score returns the relevance sub-score in [baseline, 1]. Items with a blank
// title get the baseline only.
func (m *Matcher) Score(item models.ContentItem) float64 {
	baseline := m.profile.Baseline
	if strings.TrimSpace(item.Title) == "" {
		return baseline
	}

	hits := m.Matches(item.Category, item.Title+" "+item.Summary)
	keyword := float64(hits) / float64(m.profile.Saturation)
	if keyword > 1 {
		keyword = 1
	}

	return baseline + (1-baseline)*(0.5*m.profile.Weight(item.Category)+0.5*keyword)
}

// tokenize lowercases and keeps letters, digits and the joiners used in
// keywords like "ci/cd", separating everything else with single spaces.
func tokenize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '+' || r == '#' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
