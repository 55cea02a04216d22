package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"docrag/internal/domain"
	"docrag/internal/service"
)

type fakePort struct {
	res     service.Resolution
	answer  string
	err     error
	resolve int
	asks    int
}

func (f *fakePort) Resolve(_ context.Context, _ string, _ int64, _ int) (service.Resolution, error) {
	f.resolve++
	return f.res, f.err
}

func (f *fakePort) Ask(_ context.Context, id int64, q string, _ int) (domain.Question, error) {
	f.asks++
	return domain.Question{DocumentID: id, Question: q, Answer: f.answer, Model: "extractive"}, f.err
}

func newModel(port Port) Model {
	m := New(context.Background(), port, domain.Document{ID: 7, Filename: "contract.pdf"}, 3)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

// submit types q, presses key and runs the resulting command synchronously.
func submit(t *testing.T, m Model, q string, key tea.KeyType) Model {
	t.Helper()
	m.input.SetValue(q)
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	if cmd == nil {
		t.Fatal("no command returned")
	}
	next, _ = next.(Model).Update(cmd())
	return next.(Model)
}

func TestConsoleShowsExcerpts(t *testing.T) {
	port := &fakePort{res: service.Resolution{Status: service.StatusFound, Matches: []service.Match{
		{ChunkID: 4, Distance: 0.25, Text: "Payment is due in March. Late fees apply."},
		{ChunkID: 9, Distance: 0.5, Text: "Delivery is free."},
	}}}
	m := submit(t, newModel(port), "when is payment due", tea.KeyEnter)

	if port.resolve != 1 {
		t.Fatalf("resolve calls = %d", port.resolve)
	}
	view := m.View()
	for _, want := range []string{"contract.pdf", "Excerpt 1/2", "chunk=4", "2 excerpt(s)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if !strings.Contains(next.(Model).View(), "Excerpt 2/2") {
		t.Error("down did not move to the second excerpt")
	}
}

func TestConsolePlaceholderStatus(t *testing.T) {
	m := submit(t, newModel(&fakePort{res: service.Resolution{Status: service.StatusNotBuilt}}), "anything", tea.KeyEnter)
	if !strings.Contains(m.View(), service.NotBuiltMessage) {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestConsoleAnswer(t *testing.T) {
	port := &fakePort{answer: "In March."}
	m := submit(t, newModel(port), "when is payment due", tea.KeyCtrlA)
	if port.asks != 1 {
		t.Fatalf("ask calls = %d", port.asks)
	}
	view := m.View()
	if !strings.Contains(view, "In March.") || !strings.Contains(view, "(extractive)") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestConsoleError(t *testing.T) {
	m := submit(t, newModel(&fakePort{err: errors.New("embedding failed")}), "q", tea.KeyEnter)
	if !strings.Contains(m.View(), "Error: embedding failed") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestConsoleIgnoresEmptyInput(t *testing.T) {
	port := &fakePort{}
	m := newModel(port)
	m.input.SetValue("   ")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("empty input produced a command")
	}
}

func TestHighlightBestSentence(t *testing.T) {
	got := highlightBestSentence("Cats purr. Dogs bark loudly.", "why do dogs bark")
	if !strings.HasPrefix(got, "Cats purr. ") || !strings.Contains(got, "Dogs bark loudly.") {
		t.Fatalf("got %q", got)
	}
}
