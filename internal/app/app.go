// Package app assembles the configured components into an Assistant.
package app

import (
	"fmt"
	"time"

	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/domain"
	"docrag/internal/embedding/openai"
	"docrag/internal/embedding/tfidf"
	"docrag/internal/history"
	"docrag/internal/llm"
	"docrag/internal/service"
	"docrag/internal/session"
	"docrag/internal/summarizer"
)

// App owns the assembled Assistant and the resources behind it.
type App struct {
	Assistant *service.Assistant
	Store     *session.Store
	Config    *config.AppConfig

	history *history.SQLiteStore
}

// New builds every component named by cfg.
func New(cfg *config.AppConfig) (*App, error) {
	emb, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	ch, err := NewChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(cfg.Generator)
	if err != nil {
		return nil, err
	}
	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	store := session.NewStore(ch, emb, session.Options{
		TopK:             cfg.Retrieval.TopK,
		MaxChunks:        cfg.Retrieval.MaxChunks,
		MaxDistance:      cfg.Retrieval.MaxDistance,
		EmbedConcurrency: cfg.Retrieval.EmbedConcurrency,
		ActivateTimeout:  cfg.Retrieval.ActivateTimeout(),
		QueryTimeout:     cfg.Retrieval.QueryTimeout(),
		IdleTTL:          cfg.Retrieval.SessionTTL(),
		MaxSessions:      cfg.Retrieval.MaxSessions,
	})

	a := &App{Store: store, Config: cfg}
	var hist service.HistoryStore
	switch cfg.History.Type {
	case "sqlite", "":
		if a.history, err = history.Open(cfg.History.Path); err != nil {
			return nil, err
		}
		hist = a.history
	case "none":
	default:
		return nil, fmt.Errorf("unknown history store: %s", cfg.History.Type)
	}
	a.Assistant = service.NewAssistant(store, gen, sum, cfg.Summarizer.MaxSentences, hist)
	return a, nil
}

// Close releases the history database, if any.
func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// NewEmbedder returns the configured embedding provider.
func NewEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
			Model:       cfg.OpenAI.Model,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:   cfg.OpenAI.BatchSize,
			Concurrency: cfg.OpenAI.Concurrency,
			MaxRetries:  cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

// NewChunker returns the configured chunker.
func NewChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "word", "":
		return chunker.NewWordChunker(cfg.WordsPerChunk)
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

// NewGenerator returns the configured answer generator.
func NewGenerator(cfg config.GeneratorConfig) (domain.AnswerGenerator, error) {
	switch cfg.Type {
	case "extractive", "":
		return llm.Extractive{}, nil
	case "openai":
		gen, err := llm.NewChatGenerator(llm.Config{
			BaseURL:      cfg.OpenAI.BaseURL,
			APIKeyEnv:    cfg.OpenAI.APIKeyEnv,
			Model:        cfg.OpenAI.Model,
			MaxTokens:    cfg.OpenAI.MaxTokens,
			Temperature:  cfg.OpenAI.Temperature,
			SystemPrompt: cfg.OpenAI.SystemPrompt,
			Timeout:      time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai generator init failed: %w", err)
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}
