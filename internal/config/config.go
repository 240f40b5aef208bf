// Package config holds the explicit pipeline configuration: dataset paths and
// the list of translation providers whose outputs are produced and merged.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Provider kinds understood by the translator factory.
const (
	KindChat     = "chat"
	KindGemini   = "gemini"
	KindOllama   = "ollama"
	KindSeq2Seq  = "seq2seq"
	KindGoogle   = "google"
	KindMyMemory = "mymemory"
)

var knownKinds = map[string]bool{
	KindChat: true, KindGemini: true, KindOllama: true,
	KindSeq2Seq: true, KindGoogle: true, KindMyMemory: true,
}

// ProviderSpec describes one translation provider and where its result table lives.
type ProviderSpec struct {
	Name        string        `mapstructure:"name"`
	Kind        string        `mapstructure:"kind"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	APIKeyEnv   string        `mapstructure:"api_key_env"`
	Credentials string        `mapstructure:"credentials"`
	ProjectID   string        `mapstructure:"project_id"`
	Table       string        `mapstructure:"table"`
	Column      string        `mapstructure:"column"`
	Prefix      string        `mapstructure:"prefix"`
	Variants    []string      `mapstructure:"variants"`
	Delay       time.Duration `mapstructure:"delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// Key returns the API key, preferring the literal value over the environment.
func (p ProviderSpec) Key() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

type Config struct {
	Source         string         `mapstructure:"source"`
	Dataset        string         `mapstructure:"dataset"`
	MergeOutput    string         `mapstructure:"merge_output"`
	DB             string         `mapstructure:"db"`
	ReferenceDelay time.Duration  `mapstructure:"reference_delay"`
	Providers      []ProviderSpec `mapstructure:"providers"`
}

// Default is the stock dataset layout with two providers
// (hosted llama, local gemma) writing next to the dataset directory.
func Default() *Config {
	return &Config{
		Source:         "dataset/db.json",
		Dataset:        "dataset/db_with_reference_en.json",
		MergeOutput:    "dataset/db_with_all_translations.json",
		DB:             "./data/hingeval.db",
		ReferenceDelay: 150 * time.Millisecond,
		Providers: []ProviderSpec{
			{
				Name:      "llama",
				Kind:      KindChat,
				Model:     "meta/llama-3.1-8b-instruct",
				BaseURL:   "https://integrate.api.nvidia.com/v1",
				APIKeyEnv: "NVIDIA_API_KEY",
			},
			{
				Name:  "gemma",
				Kind:  KindOllama,
				Model: "rlm-hinglish-translator",
			},
		},
	}
}

// Load decodes the viper state into a Config, fills defaults and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	defaultProviders := cfg.Providers
	cfg.Providers = nil

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if !v.IsSet("providers") {
		cfg.Providers = defaultProviders
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Prefix == "" {
			p.Prefix = p.Name
		}
		if p.Column == "" {
			p.Column = p.Name + "_translation"
		}
		if p.Table == "" {
			p.Table = p.Name + "_translations.csv"
		}
		if p.MaxAttempts <= 0 {
			p.MaxAttempts = 1
		}
		if p.Timeout <= 0 {
			p.Timeout = 120 * time.Second
		}
	}
}

// Validate checks that provider names are present and unique and that every
// kind is one the translator factory can build.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return errors.New("config: dataset path is required")
	}
	seen := make(map[string]bool, len(c.Providers))
	prefixes := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider #%d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
		if prefixes[p.Prefix] {
			return fmt.Errorf("config: duplicate field prefix %q", p.Prefix)
		}
		prefixes[p.Prefix] = true
		if !knownKinds[p.Kind] {
			return fmt.Errorf("config: provider %q has unknown kind %q", p.Name, p.Kind)
		}
	}
	return nil
}

// Provider looks up a provider by name.
func (c *Config) Provider(name string) (ProviderSpec, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderSpec{}, false
}

// Select returns the named providers in configuration order, or all of them
// when names is empty.
func (c *Config) Select(names []string) ([]ProviderSpec, error) {
	if len(names) == 0 {
		return c.Providers, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := c.Provider(n); !ok {
			return nil, fmt.Errorf("unknown provider: %s", n)
		}
		want[n] = true
	}
	var out []ProviderSpec
	for _, p := range c.Providers {
		if want[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}
