package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// CorpusConfig configures where the built corpus is persisted and how CSV
// rows are read.
type CorpusConfig struct {
	Path      string `yaml:"path"`
	CSVColumn string `yaml:"csv_column"`
}

// QdrantConfig contains connection details for a Qdrant retrieval backend.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieverConfig selects and configures the retrieval backend.
type RetrieverConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// OpenAISynthesizerConfig holds configuration for the chat-completions
// synthesizer.
type OpenAISynthesizerConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SynthesizerConfig selects and configures the answer synthesizer.
type SynthesizerConfig struct {
	Type         string                   `yaml:"type"`
	OpenAI       *OpenAISynthesizerConfig `yaml:"openai,omitempty"`
	MaxSentences int                      `yaml:"max_sentences"`
	MaxKeywords  int                      `yaml:"max_keywords"`
}

// PipelineConfig holds retrieval defaults for the two pipeline modes.
type PipelineConfig struct {
	AnswerK         int      `yaml:"answer_k"`
	KeywordK        int      `yaml:"keyword_k"`
	ScoreCutoff     *float64 `yaml:"score_cutoff,omitempty"`
	MaxContextChars int      `yaml:"max_context_chars"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LogLevel    string            `yaml:"log_level"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Synthesizer SynthesizerConfig `yaml:"synthesizer"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragpipe/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragpipe/config.yaml and
// returns them.
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
	cfg := defaultConfig()
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
	return filepath.Join(home, ".config", "ragpipe", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		LogLevel:    "info",
		Embedder:    EmbedderConfig{Type: "tfidf"},
		Chunker:     ChunkerConfig{Type: "sentence", SentencesPerChunk: 5, OverlapSentences: 1},
		Corpus:      CorpusConfig{Path: "corpus.jsonl", CSVColumn: "description"},
		Retriever:   RetrieverConfig{Type: "local"},
		Synthesizer: SynthesizerConfig{Type: "local", MaxSentences: 5, MaxKeywords: 10},
		Pipeline:    PipelineConfig{AnswerK: 2, KeywordK: 8, MaxContextChars: 8000},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "corpus.jsonl"
	}
	if cfg.Corpus.CSVColumn == "" {
		cfg.Corpus.CSVColumn = "description"
	}
	if cfg.Pipeline.AnswerK == 0 {
		cfg.Pipeline.AnswerK = 2
	}
	if cfg.Pipeline.KeywordK == 0 {
		cfg.Pipeline.KeywordK = 8
	}
	if cfg.Pipeline.MaxContextChars == 0 {
		cfg.Pipeline.MaxContextChars = 8000
	}
	if cfg.Synthesizer.MaxSentences == 0 {
		cfg.Synthesizer.MaxSentences = 5
	}
	if cfg.Synthesizer.MaxKeywords == 0 {
		cfg.Synthesizer.MaxKeywords = 10
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Synthesizer.Type == "openai" && cfg.Synthesizer.OpenAI != nil {
		if cfg.Synthesizer.OpenAI.BaseURL == "" {
			cfg.Synthesizer.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Synthesizer.OpenAI.APIKeyEnv == "" {
			cfg.Synthesizer.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Synthesizer.OpenAI.Model == "" {
			cfg.Synthesizer.OpenAI.Model = "gpt-4o-mini"
		}
		if cfg.Synthesizer.OpenAI.TimeoutSecs == 0 {
			cfg.Synthesizer.OpenAI.TimeoutSecs = 60
		}
	}
}
