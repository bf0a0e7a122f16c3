// Package config loads the watcher configuration from a TOML file,
// applying defaults for anything unset. Secrets (API keys, the webhook
// public key, the trigger secret) are read from the environment, never
// from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variable names for secrets.
const (
	EnvPublicKey     = "DISCORD_PUBLIC_KEY"
	EnvBotToken      = "DISCORD_BOT_TOKEN"
	EnvApplicationID = "DISCORD_APPLICATION_ID"
	EnvLLMAPIKey     = "GROQ_API_KEY"
	EnvQdrantAPIKey  = "QDRANT_API_KEY"
	EnvTriggerSecret = "TRIGGER_SECRET"
)

// ServerConfig configures the interactions webhook server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `toml:"addr"`

	// PublicKey is the hex-encoded ed25519 verification key.
	// Loaded from DISCORD_PUBLIC_KEY; not set in the file.
	PublicKey string `toml:"-"`

	// TriggerSecret gates the /trigger-update endpoint.
	// Loaded from TRIGGER_SECRET; not set in the file.
	TriggerSecret string `toml:"-"`
}

// DiscordConfig configures outbound delivery and command registration.
type DiscordConfig struct {
	// BaseURL is the platform API root (default "https://discord.com/api/v10").
	BaseURL string `toml:"base_url"`

	// ApplicationID identifies the application. Loaded from
	// DISCORD_APPLICATION_ID when unset in the file.
	ApplicationID string `toml:"application_id"`

	// CommandName is the registered slash command (default "watcher").
	CommandName string `toml:"command_name"`

	// BotToken authorises command registration.
	// Loaded from DISCORD_BOT_TOKEN; not set in the file.
	BotToken string `toml:"-"`

	// TimeoutSecs is the delivery request timeout (default 15).
	TimeoutSecs int `toml:"timeout_secs"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	// BaseURL is the Ollama host (default "http://localhost:11434").
	BaseURL string `toml:"base_url"`

	// Model is the embedding model (default "all-minilm", 384 dims).
	Model string `toml:"model"`

	// Dimensions is the vector size (default 384).
	Dimensions int `toml:"dimensions"`

	// TimeoutSecs is the per-request timeout (default 15).
	TimeoutSecs int `toml:"timeout_secs"`
}

// LLMConfig configures the generation service.
type LLMConfig struct {
	// BaseURL is an OpenAI-compatible API root
	// (default "https://api.groq.com/openai/v1").
	BaseURL string `toml:"base_url"`

	// Model is the chat model (default "llama-3.3-70b-versatile").
	Model string `toml:"model"`

	// Temperature for answer generation (default 0.6).
	Temperature float64 `toml:"temperature"`

	// TimeoutSecs is the per-request timeout (default 60).
	TimeoutSecs int `toml:"timeout_secs"`

	// APIKey authorises requests. Loaded from GROQ_API_KEY.
	APIKey string `toml:"-"`
}

// QdrantConfig configures the vector store.
type QdrantConfig struct {
	// Host is the Qdrant gRPC host (default "localhost").
	Host string `toml:"host"`

	// Port is the gRPC port (default 6334).
	Port int `toml:"port"`

	// Collection is the passage collection name (default "knowledge_base").
	Collection string `toml:"collection"`

	// UseTLS enables transport security (default false).
	UseTLS bool `toml:"use_tls"`

	// APIKey authorises requests. Loaded from QDRANT_API_KEY.
	APIKey string `toml:"-"`
}

// CrawlerConfig configures page discovery.
type CrawlerConfig struct {
	// Seeds are the hub pages to start discovery from.
	Seeds []string `toml:"seeds"`

	// IncludeKeywords: a discovered URL must contain at least one.
	IncludeKeywords []string `toml:"include_keywords"`

	// ExcludeKeywords: a discovered URL must contain none.
	ExcludeKeywords []string `toml:"exclude_keywords"`

	// MaxPages bounds the total pages visited per run (default 300).
	MaxPages int `toml:"max_pages"`

	// DelayMillis is the politeness delay between page fetches
	// (default 1500).
	DelayMillis int `toml:"delay_millis"`

	// UserAgent is sent on every request.
	UserAgent string `toml:"user_agent"`

	// TimeoutSecs is the per-fetch timeout (default 30).
	TimeoutSecs int `toml:"timeout_secs"`
}

// ExtractorConfig configures HTML noise removal.
type ExtractorConfig struct {
	// NoiseSelectors are removed before text extraction. Supported
	// forms: ".class", "#id", "tag".
	NoiseSelectors []string `toml:"noise_selectors"`

	// MainContentID is the element id holding the page's main content
	// (default "main"). When present, text is extracted from it only.
	MainContentID string `toml:"main_content_id"`
}

// ChunkerConfig configures both chunking strategies.
type ChunkerConfig struct {
	// WebWindowLines is the line-window size for web pages (default 12).
	WebWindowLines int `toml:"web_window_lines"`

	// WebOverlapLines is the line overlap (default 4).
	WebOverlapLines int `toml:"web_overlap_lines"`

	// WebMinLines discards shorter windows (default 3).
	WebMinLines int `toml:"web_min_lines"`

	// DocWindowChars is the character-window size for monolithic
	// documents (default 800).
	DocWindowChars int `toml:"doc_window_chars"`

	// DocOverlapChars is the character overlap (default 100).
	DocOverlapChars int `toml:"doc_overlap_chars"`
}

// RetrievalConfig configures nearest-k lookup.
type RetrievalConfig struct {
	// TopK is the number of nearest passages requested (default 10).
	TopK int `toml:"top_k"`

	// MinScore discards weaker hits (default 0.35).
	MinScore float64 `toml:"min_score"`
}

// IngestConfig configures ingestion sources and state.
type IngestConfig struct {
	// HandbookPath is the local handbook PDF. Empty disables the
	// handbook source.
	HandbookPath string `toml:"handbook_path"`

	// WatchHandbook re-ingests the handbook when the file changes.
	WatchHandbook bool `toml:"watch_handbook"`

	// EmbedBatchSize bounds one embedding request during ingestion
	// (default 50).
	EmbedBatchSize int `toml:"embed_batch_size"`

	// DataDir holds the run ledger database (default "~/.watcher/data").
	DataDir string `toml:"data_dir"`
}

// DispatcherConfig configures the background task pool.
type DispatcherConfig struct {
	// Workers is the number of concurrent answer tasks (default 4).
	Workers int `toml:"workers"`

	// QueueSize bounds pending tasks (default 64).
	QueueSize int `toml:"queue_size"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Discord    DiscordConfig    `toml:"discord"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	LLM        LLMConfig        `toml:"llm"`
	Qdrant     QdrantConfig     `toml:"qdrant"`
	Crawler    CrawlerConfig    `toml:"crawler"`
	Extractor  ExtractorConfig  `toml:"extractor"`
	Chunker    ChunkerConfig    `toml:"chunker"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Ingest     IngestConfig     `toml:"ingest"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
}

// Load reads the config file at path. A missing file yields defaults.
// Environment secrets are applied after the file is parsed.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Timeout helpers keep duration math out of the adapters' callers.

// DeliveryTimeout returns the chat delivery timeout.
func (c *Config) DeliveryTimeout() time.Duration {
	return time.Duration(c.Discord.TimeoutSecs) * time.Second
}

// EmbedTimeout returns the per-embedding-request timeout.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSecs) * time.Second
}

// GenerateTimeout returns the per-generation-request timeout.
func (c *Config) GenerateTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSecs) * time.Second
}

// FetchTimeout returns the per-page fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSecs) * time.Second
}

// CrawlDelay returns the politeness delay between page fetches.
func (c *Config) CrawlDelay() time.Duration {
	return time.Duration(c.Crawler.DelayMillis) * time.Millisecond
}

//nolint:gocyclo // Straight-line default assignments.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Discord.BaseURL == "" {
		cfg.Discord.BaseURL = "https://discord.com/api/v10"
	}
	if cfg.Discord.CommandName == "" {
		cfg.Discord.CommandName = "watcher"
	}
	if cfg.Discord.TimeoutSecs == 0 {
		cfg.Discord.TimeoutSecs = 15
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-minilm"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 15
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.3-70b-versatile"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.6
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "knowledge_base"
	}
	if len(cfg.Crawler.IncludeKeywords) == 0 {
		cfg.Crawler.IncludeKeywords = []string{
			"academics", "faculty", "program", "department",
			"admissions", "fee", "examinations", "research",
			"administration",
		}
	}
	if len(cfg.Crawler.ExcludeKeywords) == 0 {
		cfg.Crawler.ExcludeKeywords = []string{
			".pdf", ".jpg", "#", "wp-content", "login", "feed",
		}
	}
	if cfg.Crawler.MaxPages == 0 {
		cfg.Crawler.MaxPages = 300
	}
	if cfg.Crawler.DelayMillis == 0 {
		cfg.Crawler.DelayMillis = 1500
	}
	if cfg.Crawler.UserAgent == "" {
		cfg.Crawler.UserAgent = "Mozilla/5.0 (compatible; CampusWatcher/1.0)"
	}
	if cfg.Crawler.TimeoutSecs == 0 {
		cfg.Crawler.TimeoutSecs = 30
	}
	if len(cfg.Extractor.NoiseSelectors) == 0 {
		cfg.Extractor.NoiseSelectors = []string{
			".fusion-footer", ".fusion-header-wrapper", "#sliders-container",
			".fusion-sliding-bar", ".fusion-page-title-bar", "#side-header",
			".fusion-sharing-box", "script", "style", "iframe", "form", "nav",
		}
	}
	if cfg.Extractor.MainContentID == "" {
		cfg.Extractor.MainContentID = "main"
	}
	if cfg.Chunker.WebWindowLines == 0 {
		cfg.Chunker.WebWindowLines = 12
	}
	if cfg.Chunker.WebOverlapLines == 0 {
		cfg.Chunker.WebOverlapLines = 4
	}
	if cfg.Chunker.WebMinLines == 0 {
		cfg.Chunker.WebMinLines = 3
	}
	if cfg.Chunker.DocWindowChars == 0 {
		cfg.Chunker.DocWindowChars = 800
	}
	if cfg.Chunker.DocOverlapChars == 0 {
		cfg.Chunker.DocOverlapChars = 100
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.35
	}
	if cfg.Ingest.EmbedBatchSize == 0 {
		cfg.Ingest.EmbedBatchSize = 50
	}
	if cfg.Dispatcher.Workers == 0 {
		cfg.Dispatcher.Workers = 4
	}
	if cfg.Dispatcher.QueueSize == 0 {
		cfg.Dispatcher.QueueSize = 64
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvPublicKey); v != "" {
		cfg.Server.PublicKey = v
	}
	if v := os.Getenv(EnvTriggerSecret); v != "" {
		cfg.Server.TriggerSecret = v
	}
	if v := os.Getenv(EnvBotToken); v != "" {
		cfg.Discord.BotToken = v
	}
	if v := os.Getenv(EnvApplicationID); v != "" && cfg.Discord.ApplicationID == "" {
		cfg.Discord.ApplicationID = v
	}
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvQdrantAPIKey); v != "" {
		cfg.Qdrant.APIKey = v
	}
}
