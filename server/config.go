package server

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/fixit/ai"
)

// Config configures the HTTP service, its storage, and the AI endpoints.
type Config struct {
	Server ServerConfig `toml:"server"`
	AI     AIConfig     `toml:"ai"`
	Corpus CorpusConfig `toml:"corpus"`
}

type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr"`
	// DataDir is the storage directory.
	DataDir string `toml:"data_dir"`
}

type AIConfig struct {
	EmbeddingHost  string `toml:"embedding_host"`
	AnalyzerHost   string `toml:"analyzer_host"`
	EmbeddingModel string `toml:"embedding_model"`
	AnalyzerModel  string `toml:"analyzer_model"`
	// APIToken authenticates against hosted services. Leave empty for
	// local servers; prefer the FIXIT_AI_TOKEN environment variable over
	// committing a key to the config file.
	APIToken string `toml:"api_token"`
}

type CorpusConfig struct {
	// PartsPath, BlogsPath, and RepairsPath name the scraped corpus files.
	// Empty paths skip their collections.
	PartsPath   string `toml:"parts_path"`
	BlogsPath   string `toml:"blogs_path"`
	RepairsPath string `toml:"repairs_path"`
	// Watch reseeds a collection whenever its corpus file changes on disk.
	Watch bool `toml:"watch"`
}

// DefaultConfig returns the standard local-development configuration.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			DataDir: "data",
		},
		AI: AIConfig{
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			AnalyzerHost:   aiDefaults.AnalyzerHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			AnalyzerModel:  aiDefaults.AnalyzerModel,
		},
	}
}

// LoadConfig reads a TOML config file, layering its values over the
// defaults and FIXIT_* environment variables over both. An empty path skips
// the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setEnv(&c.Server.Addr, "FIXIT_ADDR")
	setEnv(&c.Server.DataDir, "FIXIT_DATA_DIR")
	setEnv(&c.AI.EmbeddingHost, "FIXIT_EMBEDDING_HOST")
	setEnv(&c.AI.AnalyzerHost, "FIXIT_ANALYZER_HOST")
	setEnv(&c.AI.EmbeddingModel, "FIXIT_EMBEDDING_MODEL")
	setEnv(&c.AI.AnalyzerModel, "FIXIT_ANALYZER_MODEL")
	setEnv(&c.AI.APIToken, "FIXIT_AI_TOKEN")
	setEnv(&c.Corpus.PartsPath, "FIXIT_PARTS_PATH")
	setEnv(&c.Corpus.BlogsPath, "FIXIT_BLOGS_PATH")
	setEnv(&c.Corpus.RepairsPath, "FIXIT_REPAIRS_PATH")
	if v := os.Getenv("FIXIT_WATCH_CORPUS"); v != "" {
		c.Corpus.Watch = v == "1" || v == "true"
	}
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// AISettings maps the AI section onto the provider configuration.
func (c *Config) AISettings() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithAnalyzerHost(c.AI.AnalyzerHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithAnalyzerModel(c.AI.AnalyzerModel),
		ai.WithAPIToken(c.AI.APIToken),
	)
}
