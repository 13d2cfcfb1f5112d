package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"docrag/internal/service"
	"docrag/internal/session"
)

type fakeAssistant struct {
	answer service.Answer
	err    error
	asked  []string
	resets int
}

func (f *fakeAssistant) Ask(_ context.Context, _, question string) (service.Answer, error) {
	f.asked = append(f.asked, question)
	return f.answer, f.err
}

func (f *fakeAssistant) Reset(string) { f.resets++ }

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestAskRoundTrip(t *testing.T) {
	fake := &fakeAssistant{answer: service.Answer{
		Text:     "Cells divide. Zebras run fast.",
		Status:   session.StatusMatched,
		Document: "bio.txt",
	}}
	m := New(fake, "local", "bio.txt", "summary", 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)

	m, cmd := typeAndEnter(t, m, "how fast do zebras run")
	if cmd == nil || !m.pending {
		t.Fatal("expected an ask command")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.pending || len(m.turns) != 1 {
		t.Fatalf("turns = %+v, pending = %v", m.turns, m.pending)
	}
	if len(fake.asked) != 1 || fake.asked[0] != "how fast do zebras run" {
		t.Errorf("asked = %v", fake.asked)
	}
	if !strings.Contains(m.status, "bio.txt") {
		t.Errorf("status = %q", m.status)
	}
	if out := m.renderTranscript(); !strings.Contains(out, "Zebras run fast.") || !strings.Contains(out, "source: bio.txt") {
		t.Errorf("transcript = %q", out)
	}
}

func TestAskErrorIsShown(t *testing.T) {
	fake := &fakeAssistant{err: errors.New("provider down")}
	m := New(fake, "local", "bio.txt", "", 0)
	m, cmd := typeAndEnter(t, m, "hello")
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !strings.Contains(m.status, "provider down") || !strings.Contains(m.renderTranscript(), "provider down") {
		t.Errorf("error not surfaced: status=%q", m.status)
	}
}

func TestResetCommand(t *testing.T) {
	fake := &fakeAssistant{}
	m := New(fake, "local", "bio.txt", "", 0)
	m, cmd := typeAndEnter(t, m, "/reset")
	if cmd != nil || fake.resets != 1 || m.document != "" || len(fake.asked) != 0 {
		t.Errorf("reset not applied: resets=%d document=%q", fake.resets, m.document)
	}
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Cats sleep a lot. Dogs bark loudly.", "why do dogs bark")
	if !strings.Contains(out, "Cats sleep a lot.") || !strings.Contains(out, "Dogs bark loudly.") {
		t.Errorf("sentences lost: %q", out)
	}
	if got := highlightBestSentence("  ", "dogs"); got != "  " {
		t.Errorf("blank text changed: %q", got)
	}
}
