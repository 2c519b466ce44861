package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration. Every field has a usable
// default; API keys come from the environment, never from the file.
type Config struct {
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Indexer   IndexerConfig   `yaml:"indexer,omitempty"`
	Agent     AgentConfig     `yaml:"agent,omitempty"`
}

type LLMConfig struct {
	BaseURL         string `yaml:"base_url,omitempty"`
	StrongModel     string `yaml:"strong_model,omitempty"`
	GenerationModel string `yaml:"generation_model,omitempty"`
}

type EmbeddingConfig struct {
	Model string `yaml:"model,omitempty"`
}

type StoreConfig struct {
	// Path of the SQLite vector store file.
	Path string `yaml:"path,omitempty"`
	// ConversationsPath enables conversation persistence when set.
	ConversationsPath string `yaml:"conversations_path,omitempty"`
	// PostgresURI switches conversation persistence to Postgres.
	PostgresURI string `yaml:"postgres_uri,omitempty"`
}

type IndexerConfig struct {
	Include       []string `yaml:"include,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
	MaxChunkChars int      `yaml:"max_chunk_chars,omitempty"`
	ChunkOverlap  int      `yaml:"chunk_overlap,omitempty"`
	BatchSize     int      `yaml:"batch_size,omitempty"`
}

type AgentConfig struct {
	Prompt   string `yaml:"prompt,omitempty"`
	MaxTurns int    `yaml:"max_turns,omitempty"`
}

const defaultPrompt = "You are a thorough research assistant. You answer questions using the indexed documents and the live web, and you always say where the information came from."

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			StrongModel:     "o3-mini",
			GenerationModel: "gpt-4o-mini",
		},
		Store: StoreConfig{
			Path: "scoutpod.db",
		},
		Agent: AgentConfig{
			Prompt: defaultPrompt,
		},
	}
}

// LoadConfig reads path when it exists and overlays it on the defaults. A
// missing file is fine; a malformed one is not.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Agent.Prompt == "" {
		cfg.Agent.Prompt = defaultPrompt
	}
	return cfg, nil
}

// requireCredential returns the named environment variable, falling back to
// an interactive no-echo prompt when stdin is a terminal.
func requireCredential(envVar, label string) (string, error) {
	if value := os.Getenv(envVar); value != "" {
		return value, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is not set", envVar)
	}

	fmt.Fprintf(os.Stderr, "Enter %s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%s is required", envVar)
	}
	return string(raw), nil
}

// loadEnv pulls in a .env file when present, then leaves resolution to the
// process environment.
func loadEnv() {
	_ = godotenv.Load()
}
