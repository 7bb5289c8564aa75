// Package config loads converter settings from a config file and MDBLOCKS_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kk-code-lab/mdblocks"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "MDBLOCKS"

// Keys understood in config files and, upper-cased with EnvPrefix, in the
// environment.
const (
	KeyMaxHeadingLevel          = "max_heading_level"
	KeyPreserveEmptyParagraphs  = "preserve_empty_paragraphs"
	KeyCodeBlockDefaultLanguage = "code_block_default_language"
	KeyMaxInputBytes            = "max_input_bytes"
	KeyMaxRichTextLength        = "max_rich_text_length"
	KeyNormalizeLanguages       = "normalize_languages"
)

// Config mirrors the tunable subset of mdblocks.Options.
type Config struct {
	MaxHeadingLevel          int    `mapstructure:"max_heading_level" yaml:"max_heading_level"`
	PreserveEmptyParagraphs  bool   `mapstructure:"preserve_empty_paragraphs" yaml:"preserve_empty_paragraphs"`
	CodeBlockDefaultLanguage string `mapstructure:"code_block_default_language" yaml:"code_block_default_language"`
	MaxInputBytes            int    `mapstructure:"max_input_bytes" yaml:"max_input_bytes"`
	MaxRichTextLength        int    `mapstructure:"max_rich_text_length" yaml:"max_rich_text_length"`
	NormalizeLanguages       bool   `mapstructure:"normalize_languages" yaml:"normalize_languages"`
}

// Default returns the library defaults.
func Default() *Config {
	return &Config{
		MaxHeadingLevel:          mdblocks.DefaultMaxHeadingLevel,
		CodeBlockDefaultLanguage: mdblocks.DefaultCodeBlockLanguage,
		MaxInputBytes:            mdblocks.DefaultMaxInputBytes,
		MaxRichTextLength:        mdblocks.DefaultMaxRichTextLength,
	}
}

// DefaultPath is the per-user config file, ~/.config/mdblocks/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "mdblocks", "config.yaml"), nil
}

// Load reads the default config file when it exists and merges environment
// variables on top.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return LoadFromPath("")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return LoadFromPath("")
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config file at path (YAML, TOML or JSON, picked by
// extension) and merges environment variables. An empty path uses defaults
// and the environment only; a missing explicit file is an error.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault(KeyMaxHeadingLevel, defaults.MaxHeadingLevel)
	v.SetDefault(KeyPreserveEmptyParagraphs, defaults.PreserveEmptyParagraphs)
	v.SetDefault(KeyCodeBlockDefaultLanguage, defaults.CodeBlockDefaultLanguage)
	v.SetDefault(KeyMaxInputBytes, defaults.MaxInputBytes)
	v.SetDefault(KeyMaxRichTextLength, defaults.MaxRichTextLength)
	v.SetDefault(KeyNormalizeLanguages, defaults.NormalizeLanguages)

	// Example: MDBLOCKS_MAX_HEADING_LEVEL=2
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(expandPath(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the converter would otherwise silently clamp.
func (c *Config) Validate() error {
	if c.MaxHeadingLevel < 1 || c.MaxHeadingLevel > 3 {
		return fmt.Errorf("%s must be between 1 and 3, got %d", KeyMaxHeadingLevel, c.MaxHeadingLevel)
	}
	if strings.TrimSpace(c.CodeBlockDefaultLanguage) == "" {
		return fmt.Errorf("%s cannot be empty", KeyCodeBlockDefaultLanguage)
	}
	if c.MaxInputBytes < 0 {
		return fmt.Errorf("%s cannot be negative", KeyMaxInputBytes)
	}
	if c.MaxRichTextLength < 0 {
		return fmt.Errorf("%s cannot be negative", KeyMaxRichTextLength)
	}
	return nil
}

// Options converts the config into converter options.
func (c *Config) Options() mdblocks.Options {
	opts := mdblocks.DefaultOptions()
	opts.MaxHeadingLevel = c.MaxHeadingLevel
	opts.PreserveEmptyParagraphs = c.PreserveEmptyParagraphs
	opts.CodeBlockDefaultLanguage = c.CodeBlockDefaultLanguage
	opts.MaxInputBytes = c.MaxInputBytes
	opts.MaxRichTextLength = c.MaxRichTextLength
	opts.NormalizeLanguages = c.NormalizeLanguages
	return opts
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
