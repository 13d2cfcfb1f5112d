package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	// Concurrency bounds batch requests in flight.
	Concurrency int `yaml:"concurrency"`
	MaxRetries  int `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string               `yaml:"type"`
	OpenAI OpenAIEmbedderConfig `yaml:"openai"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	WordsPerChunk     int    `yaml:"words_per_chunk"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// RetrievalConfig bounds how much of a document reaches the prompt.
type RetrievalConfig struct {
	TopK      int `yaml:"top_k"`
	MaxChunks int `yaml:"max_chunks"`
	// MaxDistance drops hits farther than this squared L2 distance. Zero disables it.
	MaxDistance         float64 `yaml:"max_distance"`
	ActivateTimeoutSecs int     `yaml:"activate_timeout_secs"`
	QueryTimeoutSecs    int     `yaml:"query_timeout_secs"`
	// EmbedConcurrency bounds parallel requests for embedders without a batch API.
	EmbedConcurrency int `yaml:"embed_concurrency"`
	// SessionTTLSecs expires documents left unused for this long.
	SessionTTLSecs int `yaml:"session_ttl_secs"`
	// MaxSessions caps resident documents; the least recently used is evicted.
	MaxSessions int `yaml:"max_sessions"`
}

// ActivateTimeout returns the activation budget as a duration.
func (r RetrievalConfig) ActivateTimeout() time.Duration {
	return time.Duration(r.ActivateTimeoutSecs) * time.Second
}

// QueryTimeout returns the per-query budget as a duration.
func (r RetrievalConfig) QueryTimeout() time.Duration {
	return time.Duration(r.QueryTimeoutSecs) * time.Second
}

// SessionTTL returns the idle lifetime of a document as a duration.
func (r RetrievalConfig) SessionTTL() time.Duration {
	return time.Duration(r.SessionTTLSecs) * time.Second
}

// SweepInterval is how often idle documents are looked for.
func (r RetrievalConfig) SweepInterval() time.Duration {
	return min(r.SessionTTL(), time.Minute)
}

// OpenAIGeneratorConfig configures the chat completion generator.
type OpenAIGeneratorConfig struct {
	BaseURL      string  `yaml:"base_url"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float32 `yaml:"temperature"`
	SystemPrompt string  `yaml:"system_prompt"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
}

// GeneratorConfig selects the answer generator.
type GeneratorConfig struct {
	Type   string                `yaml:"type"`
	OpenAI OpenAIGeneratorConfig `yaml:"openai"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// HistoryConfig selects where question/answer transcripts are kept.
type HistoryConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	History    HistoryConfig    `yaml:"history"`
	Server     ServerConfig     `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and fills in anything left unset.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/docrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docrag", "config.yaml"), nil
}

// Default returns a configuration that runs without network access.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:   EmbedderConfig{Type: "tfidf"},
		Chunker:    ChunkerConfig{Type: "word"},
		Generator:  GeneratorConfig{Type: "extractive"},
		Summarizer: SummarizerConfig{Type: "frequency"},
		History:    HistoryConfig{Type: "sqlite"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	emb := &cfg.Embedder.OpenAI
	if emb.BaseURL == "" {
		emb.BaseURL = "https://api.openai.com/v1"
	}
	if emb.APIKeyEnv == "" {
		emb.APIKeyEnv = "OPENAI_API_KEY"
	}
	if emb.Model == "" {
		emb.Model = "text-embedding-3-small"
	}
	if emb.TimeoutSecs <= 0 {
		emb.TimeoutSecs = 30
	}
	if emb.BatchSize <= 0 {
		emb.BatchSize = 32
	}
	if emb.Concurrency <= 0 {
		emb.Concurrency = 4
	}
	if emb.MaxRetries < 0 {
		emb.MaxRetries = 0
	}

	if cfg.Chunker.WordsPerChunk <= 0 {
		cfg.Chunker.WordsPerChunk = 500
	}
	if cfg.Chunker.SentencesPerChunk <= 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Chunker.OverlapSentences < 0 {
		cfg.Chunker.OverlapSentences = 0
	}

	r := &cfg.Retrieval
	if r.TopK <= 0 {
		r.TopK = 3
	}
	if r.MaxChunks <= 0 {
		r.MaxChunks = 3
	}
	if r.MaxDistance < 0 {
		r.MaxDistance = 0
	}
	if r.ActivateTimeoutSecs <= 0 {
		r.ActivateTimeoutSecs = 120
	}
	if r.QueryTimeoutSecs <= 0 {
		r.QueryTimeoutSecs = 30
	}
	if r.EmbedConcurrency <= 0 {
		r.EmbedConcurrency = 8
	}
	if r.SessionTTLSecs <= 0 {
		r.SessionTTLSecs = 3600
	}
	if r.MaxSessions <= 0 {
		r.MaxSessions = 1000
	}

	gen := &cfg.Generator.OpenAI
	if gen.BaseURL == "" {
		gen.BaseURL = "https://api.openai.com/v1"
	}
	if gen.APIKeyEnv == "" {
		gen.APIKeyEnv = "OPENAI_API_KEY"
	}
	if gen.Model == "" {
		gen.Model = "gpt-4o-mini"
	}
	if gen.MaxTokens <= 0 {
		gen.MaxTokens = 700
	}
	if gen.TimeoutSecs <= 0 {
		gen.TimeoutSecs = 60
	}

	if cfg.Summarizer.MaxSentences <= 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "docrag.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
}
