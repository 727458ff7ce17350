// Package match implements fuzzy answer matching for song titles and
// artists (Korean/Japanese/English) and exact matching for difficulty
// levels.
package match

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	baseThreshold   = 0.80
	prefixThreshold = 0.85
	levelEpsilon    = 0.01
)

var punctuation = regexp.MustCompile("[!@#$%^&*()_+\\-=\\[\\]{};':\"\\\\|,.<>/?`~]")

// Normalize lowercases the text, replaces common punctuation with spaces
// and collapses runs of whitespace. CJK characters pass through untouched.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ToLower(text)
	t = punctuation.ReplaceAllString(t, " ")
	return strings.Join(strings.Fields(t), " ")
}

// Ratio is a normalized similarity in [0,1] derived from the rune-level
// edit distance between a and b.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// minGuessLen is the minimum guess length accepted against a candidate of
// the given rune length. Longer candidates tolerate proportionally shorter
// guesses so abbreviations of long Japanese titles still qualify.
func minGuessLen(candLen int) int {
	switch {
	case candLen >= 40:
		return max(10, candLen*25/100)
	case candLen >= 20:
		return max(6, candLen*30/100)
	case candLen >= 10:
		return max(4, candLen*35/100)
	default:
		return max(3, candLen*40/100)
	}
}

// threshold is the similarity bar for a candidate of the given rune
// length. Long titles accumulate more incidental edits, so the bar drops.
func threshold(candLen int) float64 {
	switch {
	case candLen > 30:
		return 0.65
	case candLen > 20:
		return 0.70
	case candLen > 15:
		return 0.75
	default:
		return baseThreshold
	}
}

// Text reports whether guess matches any of the candidate strings after
// normalization. Empty candidates are skipped.
func Text(guess string, candidates ...string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	for _, cand := range candidates {
		c := Normalize(cand)
		if c == "" {
			continue
		}
		if matchOne(g, c) {
			return true
		}
	}
	return false
}

func matchOne(guess, cand string) bool {
	guessRunes := []rune(guess)
	candRunes := []rune(cand)

	if len(guessRunes) < minGuessLen(len(candRunes)) {
		return false
	}
	if strings.Contains(cand, guess) || strings.Contains(guess, cand) {
		return true
	}
	if len(candRunes) > 15 && len(guessRunes) >= 6 {
		if strings.HasPrefix(cand, guess) {
			return true
		}
		shared := len(guessRunes)
		if shared > len(candRunes) {
			shared = len(candRunes)
		}
		if Ratio(guess, string(candRunes[:shared])) >= prefixThreshold {
			return true
		}
	}
	return Ratio(guess, cand) >= threshold(len(candRunes))
}

// Level reports whether the guess parses to exactly the chart level.
// Comma decimals are accepted and a trailing '+' is ignored, so both
// "13,7" and "13.7+" match 13.7. No tolerance beyond float noise.
func Level(guess string, level float64) bool {
	cleaned := strings.TrimSpace(guess)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.ReplaceAll(cleaned, "+", "")
	if cleaned == "" {
		return false
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return false
	}
	return math.Abs(parsed-level) < levelEpsilon
}
