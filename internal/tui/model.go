// Package tui is an interactive console for questioning one document.
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

	"docrag/internal/domain"
	"docrag/internal/service"
	"docrag/internal/summarizer"
)

// Port is the console-facing subset of the retrieval service.
type Port interface {
	Resolve(ctx context.Context, query string, documentID int64, topK int) (service.Resolution, error)
	Ask(ctx context.Context, documentID int64, question string, topK int) (domain.Question, error)
}

type resolvedMsg struct {
	query string
	res   service.Resolution
	err   error
}

type answeredMsg struct {
	query string
	q     domain.Question
	err   error
}

// Model is the Bubble Tea model for the console.
type Model struct {
	ctx      context.Context
	port     Port
	document domain.Document
	topK     int

	input     textinput.Model
	viewport  viewport.Model
	res       service.Resolution
	answer    string
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a console for doc. topK <= 0 uses the service default.
func New(ctx context.Context, port Port, doc domain.Document, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document; Enter shows excerpts, Ctrl+A answers"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		port:     port,
		document: doc,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) resolveCmd(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.port.Resolve(m.ctx, q, m.document.ID, m.topK)
		return resolvedMsg{query: q, res: res, err: err}
	}
}

func (m Model) askCmd(q string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.port.Ask(m.ctx, m.document.ID, q, m.topK)
		return answeredMsg{query: q, q: ans, err: err}
	}
}

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and document, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case resolvedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.res = service.Resolution{}
		} else {
			m.res, m.answer, m.cursor, m.lastQuery = msg.res, "", 0, msg.query
			m.status = statusLine(msg.query, msg.res)
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case answeredMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.answer, m.lastQuery = msg.q.Answer, msg.query
			m.status = fmt.Sprintf("Answer for %q", msg.query)
			if msg.q.Model != "" {
				m.status += " (" + msg.q.Model + ")"
			}
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter", "ctrl+a":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			if msg.String() == "enter" {
				m.status = "Searching..."
				return m, m.resolveCmd(q)
			}
			m.status = "Answering..."
			return m, m.askCmd(q)
		case "down":
			if n := len(m.res.Matches); n > 0 && m.answer == "" {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if n := len(m.res.Matches); n > 0 && m.answer == "" {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func statusLine(q string, res service.Resolution) string {
	switch res.Status {
	case service.StatusFound:
		return fmt.Sprintf("%d excerpt(s) for %q", len(res.Matches), q)
	default:
		return res.Context()[0]
	}
}

// View renders the layout and the current excerpt or answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docrag console")
	doc := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
		Render(fmt.Sprintf("document %d: %s", m.document.ID, m.document.Filename))
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + doc + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if m.answer != "" {
		return "Answer\n\n" + m.answer
	}
	if len(m.res.Matches) == 0 {
		if m.lastQuery != "" {
			return m.res.Context()[0]
		}
		return "No results yet."
	}
	r := m.res.Matches[m.cursor]
	title := fmt.Sprintf("Excerpt %d/%d  chunk=%d  distance=%.4f", m.cursor+1, len(m.res.Matches), r.ChunkID, r.Distance)
	return title + "\n\n" + highlightBestSentence(r.Text, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

func highlightBestSentence(text, query string) string {
	sentences := summarizer.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := map[string]struct{}{}
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
