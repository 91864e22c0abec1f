package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength filters out short noise tokens ("de", "y", "el")
const minTokenLength = 3

// stopwords are common Spanish filler words that carry no product signal
var stopwords = map[string]bool{
	"que": true, "con": true, "por": true, "para": true, "del": true,
	"las": true, "los": true, "una": true, "uno": true, "unos": true,
	"unas": true, "este": true, "esta": true, "estos": true, "estas": true,
	"quiero": true, "quisiera": true, "mandame": true, "necesito": true,
	"favor": true, "hola": true, "gracias": true,
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the canonical form of free text: diacritics stripped,
// lower-cased, every run of non-alphanumeric characters collapsed to a
// single space, trimmed. Total on any input; empty input yields "".
func Normalize(text string) string {
	stripped, _, err := transform.String(stripAccents, text)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw text
		stripped = text
	}
	lower := strings.ToLower(stripped)

	var b strings.Builder
	b.Grow(len(lower))
	lastWasSpace := true
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastWasSpace = false
		} else if !lastWasSpace {
			b.WriteRune(' ')
			lastWasSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Squash returns the normalized form with internal whitespace removed,
// so "coca cola" and "cocacola" compare equal.
func Squash(text string) string {
	return strings.ReplaceAll(Normalize(text), " ", "")
}

// Stem applies naive Spanish plural stemming: a trailing "es" or "s" is
// removed when enough of the word remains.
func Stem(token string) string {
	if strings.HasSuffix(token, "es") && len(token) > 4 {
		return token[:len(token)-2]
	}
	if strings.HasSuffix(token, "s") && len(token) > 3 {
		return token[:len(token)-1]
	}
	return token
}

// Tokens normalizes the text and returns its stemmed tokens, dropping
// stopwords and tokens shorter than three characters.
func Tokens(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if stopwords[field] {
			continue
		}
		stemmed := Stem(field)
		if len(stemmed) < minTokenLength {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// LevenshteinDistance computes the edit distance between two strings with
// unit costs for insertion, deletion and substitution, using the
// single-row dynamic-programming formulation.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			current := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, min(row[j-1]+1, prev+cost))
			prev = current
		}
	}
	return row[len(rb)]
}
