// Package ranking holds relevance scoring and the tunable ranking catalog.
package ranking

import (
	"regexp"
	"unicode/utf8"
)

// DefaultTermWeightDivisor scales a term's length into its per-occurrence weight.
const DefaultTermWeightDivisor = 10.0

// ScoreFn computes the relevance of text for a set of search terms.
// Implementations must return a value >= 0 and be deterministic.
type ScoreFn func(text string, terms []string) float64

// FrequencyScorer counts case-insensitive occurrences of each term in text and
// weights every occurrence by runeLen(term)/divisor.
//
//	score = Σ_term count(term, text) * len(term) / divisor
//
// A non-positive divisor falls back to DefaultTermWeightDivisor.
func FrequencyScorer(divisor float64) ScoreFn {
	if divisor <= 0 {
		divisor = DefaultTermWeightDivisor
	}
	return func(text string, terms []string) float64 {
		if text == "" || len(terms) == 0 {
			return 0
		}
		var score float64
		for _, term := range terms {
			if term == "" {
				continue
			}
			re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
			occurrences := len(re.FindAllStringIndex(text, -1))
			if occurrences == 0 {
				continue
			}
			score += float64(occurrences) * float64(utf8.RuneCountInString(term)) / divisor
		}
		return score
	}
}

// DefaultScorer is the frequency scorer with the default divisor.
var DefaultScorer = FrequencyScorer(DefaultTermWeightDivisor)
