package ranker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hymnsearch/internal/corpus"
	"hymnsearch/internal/domain"
	"hymnsearch/internal/testutil"
)

func newStore(t *testing.T) *corpus.Store {
	t.Helper()
	s, err := corpus.New(
		[]domain.PassageID{"1.1.1", "1.1.2", "1.1.3", "1.1.4"},
		[]string{"a\n", "b\n", "c\n", "d\n"},
		[][]float32{
			{1, 0},
			{0, 1},
			{2, 0}, // same direction as row 0
			{1, 1},
		},
		2,
	)
	require.NoError(t, err)
	return s
}

func TestRankOrdersByScoreThenPosition(t *testing.T) {
	enc := &testutil.Encoder{Default: []float32{1, 0}}
	r := NewMemory(newStore(t), enc)

	got, err := r.Rank(context.Background(), "agni", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, []int{0, 2, 3, 1}, positions(got))
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.InDelta(t, 1.0, got[1].Score, 1e-9)
	assert.InDelta(t, 0.7071, got[2].Score, 1e-4)
	assert.Equal(t, domain.PassageID("1.1.1"), got[0].Label)
	assert.Equal(t, "a\n", got[0].Text)
}

func TestRankReturnsTopK(t *testing.T) {
	enc := &testutil.Encoder{Default: []float32{0, 1}}
	r := NewMemory(newStore(t), enc)

	got, err := r.Rank(context.Background(), "indra", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, positions(got))
}

func TestRankClampsTopK(t *testing.T) {
	enc := &testutil.Encoder{Default: []float32{1, 0}}
	r := NewMemory(newStore(t), enc)

	got, err := r.Rank(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = r.Rank(context.Background(), "q", 100)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestRankIsDeterministic(t *testing.T) {
	enc := &testutil.Encoder{Default: []float32{1, 1}}
	r := NewMemory(newStore(t), enc)

	first, err := r.Rank(context.Background(), "q", 3)
	require.NoError(t, err)
	second, err := r.Rank(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRankDimensionMismatch(t *testing.T) {
	enc := &testutil.Encoder{Default: []float32{1, 0, 0}}
	r := NewMemory(newStore(t), enc)

	_, err := r.Rank(context.Background(), "q", 2)
	assert.ErrorContains(t, err, "dimension")
}

func TestRankEncoderError(t *testing.T) {
	boom := errors.New("boom")
	r := NewMemory(newStore(t), &testutil.Encoder{Err: boom})

	_, err := r.Rank(context.Background(), "q", 2)
	assert.ErrorIs(t, err, boom)
}

func TestRankCancelled(t *testing.T) {
	r := NewMemory(newStore(t), &testutil.Encoder{Default: []float32{1, 0}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rank(ctx, "q", 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRankZeroQueryVector(t *testing.T) {
	r := NewMemory(newStore(t), &testutil.Encoder{Default: []float32{0, 0}})

	got, err := r.Rank(context.Background(), "q", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, positions(got))
	for _, res := range got {
		assert.Zero(t, res.Score)
	}
}

func TestSort(t *testing.T) {
	rs := []domain.RankedResult{
		{Position: 5, Score: 0.5},
		{Position: 2, Score: 0.9},
		{Position: 1, Score: 0.5},
	}
	Sort(rs)
	assert.Equal(t, []int{2, 1, 5}, positions(rs))
}

func positions(rs []domain.RankedResult) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Position
	}
	return out
}
