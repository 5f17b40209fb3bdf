package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reSeparator = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// NormalizeMaterialName builds the comparison key for a material name: upper-cased,
// with everything that is not a letter or digit removed. The key is never displayed.
func NormalizeMaterialName(input string) string {
	if input == "" {
		return ""
	}
	s := cases.Upper(language.Polish).String(input)
	out := strings.Builder{}
	out.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// NormalizeSpaces collapses runs of whitespace in free-text database fields.
func NormalizeSpaces(input string) string {
	s := strings.ReplaceAll(input, " ", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// Tokenize splits a material name into upper-cased alphanumeric tokens.
func Tokenize(input string) []string {
	s := cases.Upper(language.Polish).String(input)
	parts := reSeparator.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}
