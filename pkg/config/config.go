// Package config provides configuration management for docprep
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/cleaner"
	"github.com/ragkit/docprep/pkg/embedders"
	"github.com/ragkit/docprep/pkg/vectordb"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// DOCPREP_SERVER_PORT overrides server.port.
const envPrefix = "DOCPREP"

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port" validate:"gt=0,lte=65535"`

	// AllowedOrigins configures CORS; empty means all origins
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Config is the root docprep configuration
type Config struct {
	Server   ServerConfig          `json:"server" yaml:"server"`
	Logging  LoggingConfig         `json:"logging" yaml:"logging"`
	Cleaning cleaner.Options       `json:"cleaning" yaml:"cleaning"`
	Chunking chunkers.ChunkConfig  `json:"chunking" yaml:"chunking"`
	Embedder embedders.Config      `json:"embedder" yaml:"embedder"`
	Qdrant   vectordb.QdrantConfig `json:"qdrant" yaml:"qdrant"`

	// IndexingEnabled turns on Qdrant indexing of embedded chunks
	IndexingEnabled bool `json:"indexing_enabled" yaml:"indexing_enabled"`

	validator *validator.Validate
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging:  LoggingConfig{Level: "info"},
		Cleaning: *cleaner.DefaultOptions(),
		Chunking: *chunkers.DefaultChunkConfig(),
		Embedder: *embedders.DefaultConfig(),
		Qdrant:   *vectordb.DefaultQdrantConfig(),

		validator: validator.New(),
	}
}

// Load reads configuration from an optional YAML file and DOCPREP_*
// environment variables, layered over the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register every default key with viper so environment overrides
	// resolve; AutomaticEnv only consults variables for keys viper knows.
	defaults, err := cfg.asMap()
	if err != nil {
		return nil, fmt.Errorf("failed to build default config map: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// The config structs carry yaml tags, not mapstructure tags, so the
	// decoder has to be told which tag names the snake_case keys live under.
	if err := v.Unmarshal(cfg, decodeWithYAMLTags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decodeWithYAMLTags makes viper's mapstructure decoder match struct fields
// by their yaml tag names.
func decodeWithYAMLTags(dc *mapstructure.DecoderConfig) {
	dc.TagName = "yaml"
}

// asMap flattens the configuration to its YAML key/value representation.
func (c *Config) asMap() (map[string]interface{}, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the configuration against its constraints
func (c *Config) Validate() error {
	if c.validator == nil {
		c.validator = validator.New()
	}
	if err := c.validator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return c.Chunking.Validate()
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	return os.WriteFile(path, data, 0o644)
}
