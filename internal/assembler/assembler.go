// Package assembler turns ranked passages into the grounding context handed to
// the summarizer.
package assembler

import (
	"strings"

	"hymnsearch/internal/domain"
)

// Assemble keeps the first occurrence of each label in ranked order and
// concatenates the kept passages' raw text verbatim.
func Assemble(ranked []domain.RankedResult) domain.Context {
	seen := make(map[domain.PassageID]struct{}, len(ranked))
	kept := make([]domain.RankedResult, 0, len(ranked))
	var b strings.Builder
	for _, r := range ranked {
		if _, dup := seen[r.Label]; dup {
			continue
		}
		seen[r.Label] = struct{}{}
		kept = append(kept, r)
		b.WriteString(r.Text)
	}
	return domain.Context{Results: kept, Text: b.String()}
}

// TextByLabel maps each kept label to its passage text.
func TextByLabel(c domain.Context) map[domain.PassageID]string {
	out := make(map[domain.PassageID]string, len(c.Results))
	for _, r := range c.Results {
		out[r.Label] = r.Text
	}
	return out
}
