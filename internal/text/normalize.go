// Package text holds the single preprocessing routine shared by term-weight
// fitting and query scoring. Both sides must clean text identically.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTermLength is the shortest term (in runes) kept by Preprocess.
const MinTermLength = 3

var dashReplacer = strings.NewReplacer("—", " ", "–", " ")

// Clean lowercases raw, strips ASCII digits, turns the em and en dashes into
// spaces and drops every rune that is neither a word character nor whitespace.
// Line breaks survive so callers can split documents on them.
func Clean(raw string) string {
	lower := dashReplacer.Replace(strings.ToLower(raw))
	var sb strings.Builder
	sb.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= '0' && r <= '9':
			continue
		case isWordRune(r), unicode.IsSpace(r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Preprocess cleans raw and returns its surviving terms grouped by line.
// Lines with no surviving terms are omitted.
//
// Example: "The Waters—12 flowed\nand\nIndra!" → [["waters", "flowed"], ["indra"]]
func Preprocess(raw string) [][]string {
	lines := strings.Split(Clean(raw), "\n")
	out := make([][]string, 0, len(lines))
	for _, line := range lines {
		if terms := filterTerms(strings.Fields(line)); len(terms) > 0 {
			out = append(out, terms)
		}
	}
	return out
}

// Terms is Preprocess flattened into a single term list, in order.
func Terms(raw string) []string {
	var out []string
	for _, line := range Preprocess(raw) {
		out = append(out, line...)
	}
	return out
}

// IsStopword reports whether w is in the English stopword list.
func IsStopword(w string) bool {
	_, ok := Stopwords[w]
	return ok
}

func filterTerms(fields []string) []string {
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTermLength || IsStopword(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
