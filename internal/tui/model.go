// Package tui is an interactive console over the search pipeline.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hymnsearch/internal/domain"
	"hymnsearch/internal/service"
)

// Searcher is the console-facing subset of the search service.
type Searcher interface {
	Search(ctx context.Context, req service.Request) (*domain.Answer, error)
}

type searchDoneMsg struct {
	query  string
	answer *domain.Answer
	err    error
}

// Model is the Bubble Tea model for the console.
type Model struct {
	ctx         context.Context
	service     Searcher
	topK        int
	withSummary bool
	input       textinput.Model
	viewport    viewport.Model
	answer      *domain.Answer
	digest      string
	status      string
	cursor      int
	busy        bool
	ready       bool
	lastQuery   string
}

// New creates the console. digest is shown under the title.
func New(ctx context.Context, svc Searcher, topK int, withSummary bool, digest string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the hymns and press Enter"
	ti.Focus()
	vp := viewport.New(0, 0)
	return Model{
		ctx:         ctx,
		service:     svc,
		topK:        topK,
		withSummary: withSummary,
		input:       ti,
		viewport:    vp,
		digest:      digest,
		status:      "Ready. Tab toggles the summary.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + 1 + qh + 1 // title, digest, summary; status; spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case searchDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			m.answer = msg.answer
			m.cursor = 0
			m.lastQuery = msg.answer.RefinedQuery
			m.status = fmt.Sprintf("%d passages for %q (refined: %s)", len(msg.answer.Context.Results), msg.query, msg.answer.RefinedQuery)
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Searching..."
			return m, m.search(q)
		case "tab":
			m.withSummary = !m.withSummary
			m.status = fmt.Sprintf("Summary %s", onOff(m.withSummary))
			return m, nil
		case "down":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if n := m.resultCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) search(q string) tea.Cmd {
	req := service.Request{Queries: []string{q}, TopK: m.topK, IncludeSummary: m.withSummary}
	return func() tea.Msg {
		ans, err := m.service.Search(m.ctx, req)
		return searchDoneMsg{query: q, answer: ans, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Rigveda Hymn Search")
	digest := dimStyle.Render(m.digest)
	summary := ""
	if m.answer != nil && m.answer.SummaryStatus != domain.SummarySkipped {
		summary = summaryStyle.Render(m.answer.Summary)
	}
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + digest + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) resultCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Context.Results)
}

func (m Model) renderCurrentResult() string {
	if m.resultCount() == 0 {
		return "No results yet."
	}
	r := m.answer.Context.Results[m.cursor]
	title := fmt.Sprintf("%s  %d/%d  score=%.3f", r.Label.Display(), m.cursor+1, m.resultCount(), r.Score)
	return title + "\n\n" + highlightBestLine(r.Text, m.lastQuery)
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	clauseRe       = regexp.MustCompile(`[^.!?;]+[.!?;]?`)
)

// highlightBestLine emphasises the clause sharing the most words with query.
func highlightBestLine(text, query string) string {
	clauses := clauseRe.FindAllString(strings.TrimSpace(text), -1)
	if len(clauses) == 0 {
		return text
	}
	q := tokenSet(query)
	if len(q) == 0 {
		return strings.TrimSpace(text)
	}
	best, bestScore := -1, 0
	for i, c := range clauses {
		if s := overlap(q, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	for i := range clauses {
		c := strings.TrimSpace(clauses[i])
		if i == best {
			c = highlightStyle.Render(c)
		}
		clauses[i] = c
	}
	return strings.Join(clauses, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func overlap(q map[string]struct{}, clause string) int {
	n := 0
	for t := range tokenSet(clause) {
		if _, ok := q[t]; ok {
			n++
		}
	}
	return n
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
