package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CorpusConfig locates the precomputed corpus tables.
type CorpusConfig struct {
	Embeddings     string `yaml:"embeddings" validate:"required"`
	Labels         string `yaml:"labels" validate:"required"`
	Texts          string `yaml:"texts" validate:"required"`
	FitText        string `yaml:"fit_text" validate:"required"`
	LabelDelimiter string `yaml:"label_delimiter" validate:"omitempty,oneof=comma tab"`
}

// TermWeightConfig bounds the fitted vocabulary and controls query refinement.
type TermWeightConfig struct {
	MaxDocFraction float64 `yaml:"max_doc_fraction" validate:"gt=0,lte=1"`
	MinDocCount    int     `yaml:"min_doc_count" validate:"gte=1"`
	MinTerms       int     `yaml:"min_terms" validate:"gte=1"`
	TopTerms       int     `yaml:"top_terms" validate:"gte=1"`
}

type OllamaEncoderConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible encoder.
type OpenAIEncoderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EncoderConfig selects the query encoder. It must produce vectors in the
// same space as the corpus embeddings.
type EncoderConfig struct {
	Type   string               `yaml:"type" validate:"oneof=ollama openai"`
	Ollama *OllamaEncoderConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIEncoderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects where cosine ranking happens.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" validate:"oneof=memory qdrant"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains gRPC connection details for Qdrant.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// SummarizerConfig configures the grounded summary and the generation model.
type SummarizerConfig struct {
	Domain          string `yaml:"domain"`
	Mode            string `yaml:"mode" validate:"oneof=paragraph bullets"`
	Provider        string `yaml:"provider" validate:"oneof=openai anthropic openrouter"`
	APIKeyEnv       string `yaml:"api_key_env"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	DigestSentences int    `yaml:"digest_sentences"`
}

type GuardConfig struct {
	Workers     int `yaml:"workers" validate:"gte=1,lte=2"`
	TimeoutSecs int `yaml:"timeout_secs" validate:"gte=1"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	DefaultTopK int    `yaml:"default_top_k" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	TermWeights TermWeightConfig  `yaml:"term_weights"`
	Encoder     EncoderConfig     `yaml:"encoder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Guard       GuardConfig       `yaml:"guard"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from path, expanding ${VAR} references. If the file
// does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/hymnsearch/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
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

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// LabelRune maps the label_delimiter setting to the CSV separator.
func (c CorpusConfig) LabelRune() rune {
	if c.LabelDelimiter == "tab" {
		return '\t'
	}
	return ','
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hymnsearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus: CorpusConfig{
			Embeddings: "data/embeddings.tsv",
			Labels:     "data/labels.csv",
			Texts:      "data/passages.txt",
			FitText:    "data/corpus.txt",
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Corpus.LabelDelimiter == "" {
		cfg.Corpus.LabelDelimiter = "comma"
	}
	if cfg.TermWeights.MaxDocFraction == 0 {
		cfg.TermWeights.MaxDocFraction = 0.75
	}
	if cfg.TermWeights.MinDocCount == 0 {
		cfg.TermWeights.MinDocCount = 5
	}
	if cfg.TermWeights.MinTerms == 0 {
		cfg.TermWeights.MinTerms = 2
	}
	if cfg.TermWeights.TopTerms == 0 {
		cfg.TermWeights.TopTerms = 5
	}

	if cfg.Encoder.Type == "" {
		cfg.Encoder.Type = "ollama"
	}
	switch cfg.Encoder.Type {
	case "ollama":
		if cfg.Encoder.Ollama == nil {
			cfg.Encoder.Ollama = &OllamaEncoderConfig{}
		}
		if cfg.Encoder.Ollama.Host == "" {
			cfg.Encoder.Ollama.Host = "http://localhost:11434"
		}
		if cfg.Encoder.Ollama.Model == "" {
			cfg.Encoder.Ollama.Model = "all-minilm"
		}
	case "openai":
		if cfg.Encoder.OpenAI == nil {
			cfg.Encoder.OpenAI = &OpenAIEncoderConfig{}
		}
		if cfg.Encoder.OpenAI.BaseURL == "" {
			cfg.Encoder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Encoder.OpenAI.APIKeyEnv == "" {
			cfg.Encoder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Encoder.OpenAI.Model == "" {
			cfg.Encoder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Encoder.OpenAI.TimeoutSecs == 0 {
			cfg.Encoder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Encoder.OpenAI.MaxRetries == 0 {
			cfg.Encoder.OpenAI.MaxRetries = 3
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.Host == "" {
			cfg.VectorStore.Qdrant.Host = "localhost"
		}
		if cfg.VectorStore.Qdrant.Port == 0 {
			cfg.VectorStore.Qdrant.Port = 6334
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "hymns"
		}
	}

	if cfg.Summarizer.Domain == "" {
		cfg.Summarizer.Domain = "Rigveda"
	}
	if cfg.Summarizer.Mode == "" {
		cfg.Summarizer.Mode = "paragraph"
	}
	if cfg.Summarizer.Provider == "" {
		cfg.Summarizer.Provider = "openai"
	}
	if cfg.Summarizer.APIKeyEnv == "" {
		cfg.Summarizer.APIKeyEnv = "LLM_API_KEY"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4o-mini"
	}
	if cfg.Summarizer.DigestSentences == 0 {
		cfg.Summarizer.DigestSentences = 3
	}

	if cfg.Guard.Workers == 0 {
		cfg.Guard.Workers = 1
	}
	if cfg.Guard.TimeoutSecs == 0 {
		cfg.Guard.TimeoutSecs = 60
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.DefaultTopK == 0 {
		cfg.Server.DefaultTopK = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
