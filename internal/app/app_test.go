package app

import (
	"context"
	"strings"
	"testing"

	"docrag/internal/config"
)

func TestNewWithDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.History.Path = ":memory:"
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.Assistant.Upload(ctx, "local", "notes", "Rivers carry sediment to the sea. Mountains rise slowly."); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if a.Store.Len() != 1 {
		t.Errorf("Store.Len() = %d, want 1", a.Store.Len())
	}
	ans, err := a.Assistant.Ask(ctx, "local", "what do rivers carry?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(ans.Text, "sediment") {
		t.Errorf("extractive answer = %q, want the matching passage", ans.Text)
	}
	log, err := a.Assistant.History(ctx, "local", 5)
	if err != nil || len(log) != 1 {
		t.Errorf("History = %v, %v", log, err)
	}
}

func TestNewRejectsUnknownTypes(t *testing.T) {
	cases := map[string]func(*config.AppConfig){
		"embedder":   func(c *config.AppConfig) { c.Embedder.Type = "bert" },
		"chunker":    func(c *config.AppConfig) { c.Chunker.Type = "page" },
		"generator":  func(c *config.AppConfig) { c.Generator.Type = "llama" },
		"summarizer": func(c *config.AppConfig) { c.Summarizer.Type = "lexrank" },
		"history":    func(c *config.AppConfig) { c.History.Type = "postgres" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.History.Type = "none"
			mutate(cfg)
			if _, err := New(cfg); err == nil || !strings.Contains(err.Error(), "unknown") {
				t.Errorf("New error = %v, want unknown %s", err, name)
			}
		})
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Embedder.Type = "openai"
	cfg.Embedder.OpenAI.APIKeyEnv = "DOCRAG_TEST_MISSING_KEY"
	t.Setenv("DOCRAG_TEST_MISSING_KEY", "")
	if _, err := NewEmbedder(cfg.Embedder); err == nil {
		t.Fatal("expected error without api key")
	}
}
