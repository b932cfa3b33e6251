// Package config resolves the retrieval core's configuration from viper:
// config file, environment, and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultTokenBudget bounds the cumulative token cost of active skills per
// session when no budget is configured.
const DefaultTokenBudget = 8000

// EmbeddingConfig selects the embedder variant. Provider "openai" requires
// an API key; anything else selects the deterministic heuristic embedder.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// Config holds the resolved configuration.
type Config struct {
	SkillDirs   []string        `mapstructure:"skill_dirs"`
	IndexPath   string          `mapstructure:"index_path"`
	CachePath   string          `mapstructure:"cache_path"`
	TokenBudget int             `mapstructure:"token_budget"`
	Embedding   EmbeddingConfig `mapstructure:"embedding"`
	LogLevel    string          `mapstructure:"log_level"`
}

// Load resolves configuration via viper's automatic unmarshaling with
// mapstructure tags, then fills in defaults for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to unmarshal configuration")
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// SetDefaults registers defaults and environment bindings on the global
// viper instance. Environment variables use the SKILLS_ prefix, e.g.
// SKILLS_TOKEN_BUDGET.
func SetDefaults() {
	viper.SetDefault("token_budget", DefaultTokenBudget)
	viper.SetDefault("embedding.provider", "heuristic")
	viper.SetDefault("log_level", "info")

	viper.SetEnvPrefix("SKILLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func applyDefaults(cfg *Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	stateDir := filepath.Join(home, ".skills")

	if len(cfg.SkillDirs) == 0 {
		cfg.SkillDirs = []string{"./.skills", stateDir}
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(stateDir, "index.json")
	}
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(stateDir, "embedding-cache.json")
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultTokenBudget
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "heuristic"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
