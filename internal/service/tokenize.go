package service

import (
	"strings"
	"unicode/utf8"
)

// minTermLength drops short tokens that produce excessive substring matches.
const minTermLength = 3

// Tokenize lower-cases query, splits it on whitespace and discards terms
// shorter than three characters. Order is preserved. An empty result means
// the query carries no text constraint.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTermLength {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
