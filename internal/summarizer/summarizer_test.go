package summarizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefusal(t *testing.T) {
	assert.Equal(t,
		"The entered query 'how do I bake bread' is not relevant to the Rigveda context. Please enter a query related to the Rigveda.",
		Refusal(DefaultDomain, "how do I bake bread"))
}

func TestBuildPrompt(t *testing.T) {
	ctxText := "There was neither non-existence nor existence then\n"
	p := BuildPrompt(DefaultDomain, ModeParagraph, "what is creation", ctxText)

	assert.True(t, strings.HasPrefix(p, "what is creation.\n"))
	assert.True(t, strings.HasSuffix(p, ctxText))
	assert.Contains(t, p, `Do not start the summary with the phrase "The Rigveda hymns"`)
	assert.Contains(t, p, Refusal(DefaultDomain, "what is creation"))
	assert.Contains(t, p, Refusal(DefaultDomain, "What is computer science"))
	assert.Contains(t, p, "From this void emerged Desire")
	assert.Contains(t, p, "Do not use bullet points")
}

func TestBuildPromptKeepsQueryVerbatimInRefusal(t *testing.T) {
	query := "what is \"rta\"\nin the hymns"
	p := BuildPrompt(DefaultDomain, ModeParagraph, query, "ctx\n")

	assert.Contains(t, p, "\""+Refusal(DefaultDomain, query)+"\"\n")
	assert.NotContains(t, p, `\"rta\"`)
}

func TestBuildPromptBullets(t *testing.T) {
	p := BuildPrompt("Atharvaveda", ModeBullets, "q", "ctx")

	assert.Contains(t, p, "- From this void emerged Desire")
	assert.NotContains(t, p, "Do not use bullet points")
	assert.Contains(t, p, "The Atharvaveda hymns")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		in   string
		want string
	}{
		{"paragraph strips bold", ModeParagraph, "Agni is **the priest** of __sacrifice__.", "Agni is the priest of sacrifice."},
		{"paragraph strips glyphs", ModeParagraph, "- Agni is praised.\n• Indra slays Vritra.", "Agni is praised.\nIndra slays Vritra."},
		{"paragraph keeps inner hyphens", ModeParagraph, "Life-giving waters flow.", "Life-giving waters flow."},
		{"bullets normalize glyphs", ModeBullets, "• one\n* two\n– three\n· four", "- one\n- two\n- three\n- four"},
		{"bullets collapse label colon", ModeBullets, "**Deities**:\n- Agni\n- Indra", "Deities\n- Agni\n- Indra"},
		{"bullets label before plain line", ModeBullets, "Themes:\ncreation", "Themes\n- creation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.mode, tt.in))
		})
	}
}

func TestSummarize(t *testing.T) {
	gen := &testutil.Generator{Reply: "Creation began in **darkness**."}
	s := New(gen, Config{}, discardLogger())

	got, status := s.Summarize(context.Background(), "what is creation", "darkness was hidden by darkness\n")
	assert.Equal(t, domain.SummaryOK, status)
	assert.Equal(t, "Creation began in darkness.", got)
	require.Len(t, gen.Prompts(), 1)
	assert.True(t, strings.HasSuffix(gen.Prompts()[0], "darkness was hidden by darkness\n"))
}

func TestSummarizeGenerationFailure(t *testing.T) {
	gen := &testutil.Generator{Err: errors.New("upstream 502")}
	s := New(gen, Config{}, discardLogger())

	got, status := s.Summarize(context.Background(), "what is creation", "ctx\n")
	assert.Equal(t, domain.SummaryFailed, status)
	assert.Equal(t, Apology, got)
}

func TestSummarizeEmptyReply(t *testing.T) {
	for _, reply := range []string{"", "  \n\t"} {
		gen := &testutil.Generator{Reply: reply}
		s := New(gen, Config{}, discardLogger())

		got, status := s.Summarize(context.Background(), "what is creation", "In the beginning\n")
		assert.Equal(t, domain.SummaryFailed, status)
		assert.Equal(t, Apology, got)
		assert.Len(t, gen.Prompts(), 1)
	}
}

func TestSummarizeEmptyContext(t *testing.T) {
	gen := &testutil.Generator{Reply: "unused"}
	s := New(gen, Config{}, discardLogger())

	got, status := s.Summarize(context.Background(), "q", "")
	assert.Equal(t, domain.SummarySkipped, status)
	assert.Empty(t, got)
	assert.Empty(t, gen.Prompts())
}

func TestSummarizeOffTopicPassesRefusalThrough(t *testing.T) {
	gen := &testutil.Generator{Respond: func(string) string {
		return Refusal(DefaultDomain, "how do I bake bread")
	}}
	s := New(gen, Config{}, discardLogger())

	got, status := s.Summarize(context.Background(), "how do I bake bread", "ctx\n")
	assert.Equal(t, domain.SummaryOK, status)
	assert.Equal(t, s.Refusal("how do I bake bread"), got)
}

func TestDigest(t *testing.T) {
	in := "Agni is the priest. Agni brings the gods. Soma flows. Agni and Indra drink soma."
	got := Digest(in, 2)

	assert.Equal(t, "Agni brings the gods. Agni and Indra drink soma.", got)
	assert.Equal(t, "", Digest("   ", 2))
}
