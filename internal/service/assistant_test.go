package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docrag/internal/chunker"
	"docrag/internal/domain"
	"docrag/internal/history"
	"docrag/internal/prompt"
	"docrag/internal/session"
	"docrag/internal/summarizer"
)

type letterEmbedder struct{}

func (letterEmbedder) Name() string   { return "letters" }
func (letterEmbedder) Dimension() int { return 26 }

// Embed counts letters, which is enough to tell short words apart.
func (letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v, nil
}

type recordingGenerator struct {
	prompts []domain.Prompt
	err     error
}

func (g *recordingGenerator) Generate(_ context.Context, p domain.Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	if g.err != nil {
		return "", g.err
	}
	return "answer", nil
}

func newAssistant(t *testing.T, gen domain.AnswerGenerator) (*Assistant, *history.SQLiteStore) {
	t.Helper()
	ch, err := chunker.NewWordChunker(3)
	if err != nil {
		t.Fatalf("NewWordChunker failed: %v", err)
	}
	store := session.NewStore(ch, letterEmbedder{}, session.Options{TopK: 1, MaxChunks: 1})
	h, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return NewAssistant(store, gen, summarizer.NewFrequencySummarizer(), 2, h), h
}

func TestUploadAndGroundedAsk(t *testing.T) {
	gen := &recordingGenerator{}
	a, _ := newAssistant(t, gen)
	ctx := context.Background()

	res, err := a.Upload(ctx, "t1", " bio.txt ", "Cells divide often. Zebras run fast. Oak trees grow slowly.")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if res.Document != "bio.txt" || res.Chunks != 3 || res.Dimension != 26 || res.Summary == "" {
		t.Fatalf("unexpected upload result: %+v", res)
	}

	ans, err := a.Ask(ctx, "t1", "  zebras run fast  ")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !ans.Grounded() || ans.Document != "bio.txt" || ans.Context != "Zebras run fast." {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	p := gen.prompts[0]
	if p.Context != "Zebras run fast." || !strings.Contains(p.User, "ONLY the document content") {
		t.Errorf("unexpected prompt: %+v", p)
	}

	log, err := a.History(ctx, "t1", 10)
	if err != nil || len(log) != 1 {
		t.Fatalf("History = %v, %v; want one exchange", log, err)
	}
	if log[0].Question != "zebras run fast" || log[0].Document != "bio.txt" || log[0].Quiz {
		t.Errorf("unexpected exchange: %+v", log[0])
	}
}

func TestAskWithoutDocumentFallsBack(t *testing.T) {
	gen := &recordingGenerator{}
	a, _ := newAssistant(t, gen)
	ctx := context.Background()

	ans, err := a.Ask(ctx, "t1", "make a quiz about volcanoes")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if ans.Grounded() || ans.Status != session.StatusNoActiveDocument || ans.Intent != prompt.IntentQuiz {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	if !strings.Contains(gen.prompts[0].User, "Topic:\nmake a quiz about volcanoes") {
		t.Errorf("ungrounded quiz prompt = %q", gen.prompts[0].User)
	}
	log, _ := a.History(ctx, "t1", 10)
	if len(log) != 1 || log[0].Document != "" || !log[0].Quiz {
		t.Errorf("unexpected history: %+v", log)
	}
}

func TestResetClearsDocument(t *testing.T) {
	a, _ := newAssistant(t, &recordingGenerator{})
	ctx := context.Background()
	if _, err := a.Upload(ctx, "t1", "", "some words here"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if name, ok := a.ActiveDocument("t1"); !ok || name != "document" {
		t.Fatalf("ActiveDocument = %q, %v; want document", name, ok)
	}
	a.Reset("t1")
	if _, ok := a.ActiveDocument("t1"); ok {
		t.Fatal("document still active after Reset")
	}
	ans, err := a.Ask(ctx, "t1", "words?")
	if err != nil || ans.Status != session.StatusNoActiveDocument {
		t.Errorf("Ask after Reset = %+v, %v", ans, err)
	}
}

func TestAskErrors(t *testing.T) {
	boom := &domain.ProviderError{Op: "chat", Transient: true, Err: errors.New("overloaded")}
	a, _ := newAssistant(t, &recordingGenerator{err: boom})
	ctx := context.Background()

	if _, err := a.Ask(ctx, "t1", "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Ask(blank) error = %v, want ErrInvalidInput", err)
	}
	_, err := a.Ask(ctx, "t1", "hello")
	if !domain.IsTransient(err) {
		t.Errorf("Ask error = %v, want transient provider error", err)
	}
	log, _ := a.History(ctx, "t1", 10)
	if len(log) != 0 {
		t.Errorf("failed exchange was recorded: %+v", log)
	}
}

func TestUploadRejectsEmptyDocument(t *testing.T) {
	a, _ := newAssistant(t, &recordingGenerator{})
	if _, err := a.Upload(context.Background(), "t1", "x", " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Upload(blank) error = %v, want ErrInvalidInput", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	ch, _ := chunker.NewWordChunker(3)
	store := session.NewStore(ch, letterEmbedder{}, session.Options{})
	a := NewAssistant(store, &recordingGenerator{}, nil, 0, nil)
	if _, err := a.History(context.Background(), "t1", 1); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("History error = %v, want ErrHistoryDisabled", err)
	}
	if _, err := a.Ask(context.Background(), "t1", "hi"); err != nil {
		t.Errorf("Ask without history failed: %v", err)
	}
}

func TestAskForStudyNotes(t *testing.T) {
	gen := &recordingGenerator{}
	a, _ := newAssistant(t, gen)
	ctx := context.Background()
	if _, err := a.Upload(ctx, "t1", "bio.txt", "Cells divide often. Zebras run fast. Oak trees grow slowly."); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	ans, err := a.Ask(ctx, "t1", "study notes: zebras run fast")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if ans.Intent != prompt.IntentNotes || !ans.Grounded() {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	if !strings.Contains(gen.prompts[0].User, "study notes STRICTLY") {
		t.Errorf("notes prompt = %q", gen.prompts[0].User)
	}
}
