package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"hymnsearch/internal/text"
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// Digest picks the maxSentences most representative sentences of passages by
// normalized word frequency and returns them in their original order.
func Digest(passages string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	var sentences []string
	for _, s := range sentencePattern.FindAllString(passages, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return strings.TrimSpace(passages)
	}

	freq := map[string]float64{}
	maxF := 0.0
	for _, s := range sentences {
		for _, w := range words(s) {
			freq[w]++
			maxF = math.Max(maxF, freq[w])
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		total := 0.0
		for _, w := range ws {
			total += freq[w] / maxF
		}
		if len(ws) > 0 {
			total /= math.Sqrt(float64(len(ws)))
		}
		ranked[i] = scored{i, total}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(maxSentences, len(ranked))
	picked := make([]int, n)
	for i := range picked {
		picked[i] = ranked[i].idx
	}
	sort.Ints(picked)
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

func words(s string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if !text.IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}
