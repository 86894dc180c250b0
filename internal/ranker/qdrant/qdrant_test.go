package qdrant

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hymnsearch/internal/domain"
)

func TestResultFromPoint(t *testing.T) {
	p := &qdrant.ScoredPoint{
		Id:    qdrant.NewIDNum(7),
		Score: 0.5,
		Payload: qdrant.NewValueMap(map[string]any{
			payloadLabel:    "10.129.1",
			payloadText:     "There was neither non-existence nor existence\n",
			payloadPosition: 7,
		}),
	}

	got, err := resultFromPoint(p)
	require.NoError(t, err)
	assert.Equal(t, domain.RankedResult{
		Label:    "10.129.1",
		Score:    0.5,
		Text:     "There was neither non-existence nor existence\n",
		Position: 7,
	}, got)
}

func TestResultFromPointMissingPosition(t *testing.T) {
	p := &qdrant.ScoredPoint{
		Payload: qdrant.NewValueMap(map[string]any{payloadLabel: "1.1.1"}),
	}
	_, err := resultFromPoint(p)
	assert.Error(t, err)
}

func TestConvertValue(t *testing.T) {
	m := qdrant.NewValueMap(map[string]any{
		"b": true,
		"f": 1.5,
		"l": []any{"x", int64(2)},
	})
	assert.Equal(t, true, convertValue(m["b"]))
	assert.Equal(t, 1.5, convertValue(m["f"]))
	assert.Equal(t, []any{"x", int64(2)}, convertValue(m["l"]))
	assert.Nil(t, convertValue(nil))
}

func scored(scores ...float32) []*qdrant.ScoredPoint {
	out := make([]*qdrant.ScoredPoint, len(scores))
	for i, s := range scores {
		out[i] = &qdrant.ScoredPoint{Score: s}
	}
	return out
}

func TestTiedPastWindow(t *testing.T) {
	tests := []struct {
		name   string
		points []*qdrant.ScoredPoint
		topK   int
		limit  int
		want   bool
	}{
		{"tie runs to the end of a full window", scored(0.9, 0.5, 0.5, 0.5), 2, 4, true},
		{"window ends below the cut", scored(0.9, 0.5, 0.5, 0.4), 2, 4, false},
		{"short page means nothing left", scored(0.9, 0.5, 0.5), 2, 4, false},
		{"no candidates past the cut", scored(0.9, 0.5), 2, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tiedPastWindow(tt.points, tt.topK, tt.limit))
		})
	}
}
