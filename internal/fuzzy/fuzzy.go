// Package fuzzy scores how closely free text matches known phrases, on a 0-100
// scale, using the fuzzywuzzy scorers.
package fuzzy

import (
	gofuzz "github.com/paul-mannino/go-fuzzywuzzy"
)

// Ratio returns the indel similarity of a and b: a substitution costs one
// deletion plus one insertion. Two empty strings score 0.
func Ratio(a, b string) int {
	return gofuzz.Ratio(a, b)
}

// TokenSetRatio compares the token sets of a and b, ignoring case, punctuation,
// order and duplicates. A token set contained in the other scores 100.
func TokenSetRatio(a, b string) int {
	// asciiOnly=false, cleanse=true
	return gofuzz.TokenSetRatio(a, b, false, true)
}

// Match is the best candidate found by ExtractOne.
type Match struct {
	Choice string
	Score  int
}

// ExtractOne returns the highest scoring choice for query by TokenSetRatio.
// Ties keep the earliest choice. ok is false when choices is empty.
func ExtractOne(query string, choices []string) (Match, bool) {
	if len(choices) == 0 {
		return Match{}, false
	}
	best, err := gofuzz.ExtractOne(query, choices, TokenSetRatio)
	if err != nil {
		return Match{}, false
	}
	return Match{Choice: best.Match, Score: best.Score}, true
}
