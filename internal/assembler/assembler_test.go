package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hymnsearch/internal/domain"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name       string
		ranked     []domain.RankedResult
		wantLabels []domain.PassageID
		wantText   string
	}{
		{
			name:       "empty",
			ranked:     nil,
			wantLabels: []domain.PassageID{},
			wantText:   "",
		},
		{
			name: "distinct labels keep order",
			ranked: []domain.RankedResult{
				{Label: "1.1.1", Text: "agni\n", Position: 0},
				{Label: "1.32.1", Text: "indra\n", Position: 5},
			},
			wantLabels: []domain.PassageID{"1.1.1", "1.32.1"},
			wantText:   "agni\nindra\n",
		},
		{
			name: "duplicate label first wins",
			ranked: []domain.RankedResult{
				{Label: "10.129.1", Text: "first\n", Score: 0.9},
				{Label: "1.1.1", Text: "agni\n", Score: 0.8},
				{Label: "10.129.1", Text: "second\n", Score: 0.7},
			},
			wantLabels: []domain.PassageID{"10.129.1", "1.1.1"},
			wantText:   "first\nagni\n",
		},
		{
			name: "no separator added",
			ranked: []domain.RankedResult{
				{Label: "a", Text: "no newline"},
				{Label: "b", Text: "here"},
			},
			wantLabels: []domain.PassageID{"a", "b"},
			wantText:   "no newlinehere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.ranked)
			labels := make([]domain.PassageID, 0, len(got.Results))
			for _, r := range got.Results {
				labels = append(labels, r.Label)
			}
			assert.Equal(t, tt.wantLabels, labels)
			assert.Equal(t, tt.wantText, got.Text)
		})
	}
}

func TestTextByLabel(t *testing.T) {
	c := Assemble([]domain.RankedResult{
		{Label: "1.1.1", Text: "agni\n"},
		{Label: "1.1.1", Text: "dup\n"},
		{Label: "2.12.1", Text: "indra\n"},
	})
	assert.Equal(t, map[domain.PassageID]string{"1.1.1": "agni\n", "2.12.1": "indra\n"}, TextByLabel(c))
}
