// Package index implements the in-memory keyword index (BM25) and the
// per-tenant index lifecycle manager.
package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Spanish and English stop words. Both languages are always active since
// tenant corpora routinely mix them.
var stopWords = map[string]struct{}{
	// Spanish
	"de": {}, "la": {}, "el": {}, "en": {}, "los": {}, "las": {}, "del": {},
	"que": {}, "por": {}, "con": {}, "una": {}, "uno": {}, "para": {},
	"como": {}, "pero": {}, "sus": {}, "les": {}, "este": {}, "esta": {},
	"son": {}, "hay": {}, "desde": {}, "hasta": {},
	"entre": {}, "sobre": {}, "tambien": {}, "muy": {}, "mas": {}, "nos": {},
	// English
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "has": {}, "have": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "will": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "there": {}, "their": {},
	"been": {}, "more": {}, "its": {}, "our": {}, "your": {}, "how": {},
}

// Tokenize normalizes text into index terms: lowercase, diacritics folded
// away, split on non-alphanumeric runes, with short tokens and stop words
// dropped. "sábado" and "sabado" produce the same term.
func Tokenize(text string) []string {
	folded := foldDiacritics(strings.ToLower(text))

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// foldDiacritics decomposes to NFD and strips combining marks.
func foldDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsMark(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
