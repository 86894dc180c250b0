// Package ranker scores every corpus passage against an encoded search string
// and returns the k most similar ones.
package ranker

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"sort"

	"hymnsearch/internal/domain"
)

// Corpus is the read-only view of the passage table the ranker needs.
type Corpus interface {
	Len() int
	Dimension() int
	Matrix() [][]float32
	Norm(i int) float64
	LabelAt(i int) domain.PassageID
	TextAt(i int) string
}

// Memory is a brute-force cosine ranker over an in-memory corpus. It holds no
// mutable state and is safe for concurrent use.
type Memory struct {
	corpus  Corpus
	encoder domain.Encoder
}

func NewMemory(c Corpus, enc domain.Encoder) *Memory {
	return &Memory{corpus: c, encoder: enc}
}

// Rank returns min(topK, n) results by descending cosine similarity; equal
// scores are ordered by ascending corpus position. topK is clamped to [1, n].
func (m *Memory) Rank(ctx context.Context, search string, topK int) ([]domain.RankedResult, error) {
	n := m.corpus.Len()
	if n == 0 {
		return nil, nil
	}
	topK = ClampTopK(topK, n)

	query, err := m.encoder.Encode(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(query) != m.corpus.Dimension() {
		return nil, fmt.Errorf("encoder %s produced dimension %d, corpus has %d",
			m.encoder.Name(), len(query), m.corpus.Dimension())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qNorm := norm(query)
	h := make(minHeap, 0, topK)
	for i, row := range m.corpus.Matrix() {
		c := candidate{pos: i, score: cosine(row, m.corpus.Norm(i), query, qNorm)}
		if h.Len() < topK {
			heap.Push(&h, c)
			continue
		}
		if better(c, h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]domain.RankedResult, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		c := heap.Pop(&h).(candidate)
		out[i] = domain.RankedResult{
			Label:    m.corpus.LabelAt(c.pos),
			Score:    c.score,
			Text:     m.corpus.TextAt(c.pos),
			Position: c.pos,
		}
	}
	return out, nil
}

// ClampTopK bounds k to [1, n].
func ClampTopK(k, n int) int {
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// Sort orders results by descending score, then ascending position.
func Sort(rs []domain.RankedResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		return better(candidate{pos: rs[i].Position, score: rs[i].Score},
			candidate{pos: rs[j].Position, score: rs[j].Score})
	})
}

type candidate struct {
	pos   int
	score float64
}

func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.pos < b.pos
}

// minHeap keeps the worst retained candidate at the root.
type minHeap []candidate

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

func cosine(row []float32, rowNorm float64, q []float32, qNorm float64) float64 {
	if rowNorm == 0 || qNorm == 0 {
		return 0
	}
	var dot float64
	for i := range row {
		dot += float64(row[i]) * float64(q[i])
	}
	return dot / (rowNorm * qNorm)
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
