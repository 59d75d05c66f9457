// Package config provides configuration loading and structs for the leadchat server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Generator GeneratorConfig `yaml:"generator"`
	Lead      LeadConfig      `yaml:"lead"`
	Mail      MailConfig      `yaml:"mail"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// KnowledgeConfig holds knowledge corpus settings.
type KnowledgeConfig struct {
	Path string `yaml:"path"`
	// Watch enables reloading the corpus when the file changes on disk.
	Watch bool `yaml:"watch"`
}

// OpenAIConfig holds provider settings shared by the embedding and
// completion clients. The API key comes from the OPENAI_API_KEY environment
// variable, never from the config file.
type OpenAIConfig struct {
	BaseURL         string `yaml:"base_url"`
	EmbeddingModel  string `yaml:"embedding_model"`
	CompletionModel string `yaml:"completion_model"`
	// TimeoutSeconds is the per-call provider timeout, independent of the
	// request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// RetrievalConfig holds retrieval tunables.
type RetrievalConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

// GeneratorConfig holds completion tunables. Temperature is fixed per
// deployment to keep behavior testable.
type GeneratorConfig struct {
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	MaxDocLength   int     `yaml:"max_doc_length"`
	ContextTurns   int     `yaml:"context_turns"`
	MaxMessageSize int     `yaml:"max_message_size"`
}

// LeadConfig holds lead detection settings.
type LeadConfig struct {
	// Triggers extends the built-in lead-capture vocabulary.
	Triggers []string `yaml:"triggers"`
}

// MailConfig holds SMTP settings for confirmation emails. When Host is empty
// emails are logged instead of sent.
type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	From string `yaml:"from"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Knowledge.Path = expandPath(cfg.Knowledge.Path, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
