// Package config resolves arbkit settings for one operation.
//
// Sources, lowest priority first:
//
//	built-in defaults
//	l10n.yaml (Flutter gen-l10n settings, if present)
//	.arbkit.yaml
//	.env in the project root
//	ARBKIT_* environment variables
//	command-line flags (applied by the caller)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/minios-linux/arbkit/discover"
	"github.com/minios-linux/arbkit/settings"
)

// Defaults.
const (
	DefaultArbDir      = "lib/l10n"
	DefaultSourceLang  = "en"
	DefaultFilePattern = "app_{lang}.arb"
	DefaultPrefix      = "context.l10n"
	DefaultModel       = "gemini-2.5-flash"
	DefaultTimeout     = 60 * time.Second
)

// Config is the configuration surface of an extraction. It is resolved
// once and passed by value.
type Config struct {
	// Root is the project root; relative paths are resolved against it.
	Root string `yaml:"-"`

	ArbDir        string        `yaml:"arb_dir,omitempty"        env:"ARB_DIR"`
	SourceLang    string        `yaml:"source_lang,omitempty"    env:"SOURCE_LANG"`
	FilePattern   string        `yaml:"file_pattern,omitempty"   env:"FILE_PATTERN"`
	Prefix        string        `yaml:"prefix,omitempty"         env:"PREFIX"`
	AutoTranslate bool          `yaml:"auto_translate"           env:"AUTO_TRANSLATE"`
	Model         string        `yaml:"model,omitempty"          env:"MODEL"`
	Import        string        `yaml:"import,omitempty"         env:"IMPORT"`
	PostCommand   string        `yaml:"post_command,omitempty"   env:"POST_COMMAND"`
	Timeout       time.Duration `yaml:"timeout,omitempty"        env:"TIMEOUT"`

	// APIKey is never read from or written to .arbkit.yaml.
	APIKey string `yaml:"-"`
}

// apiKeys are the environment variables holding the provider key, in
// priority order.
type apiKeys struct {
	APIKey       string `env:"ARBKIT_API_KEY"`
	GeminiAPIKey string `env:"ARBKIT_GEMINI_API_KEY"`
	Fallback     string `env:"GEMINI_API_KEY"`
}

func (k apiKeys) first() string {
	for _, v := range []string{k.APIKey, k.GeminiAPIKey, k.Fallback} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Default returns the built-in configuration for root.
func Default(root string) Config {
	return Config{
		Root:          root,
		ArbDir:        DefaultArbDir,
		SourceLang:    DefaultSourceLang,
		FilePattern:   DefaultFilePattern,
		Prefix:        DefaultPrefix,
		AutoTranslate: true,
		Model:         DefaultModel,
		Timeout:       DefaultTimeout,
	}
}

// Load resolves the configuration for the project at root. Flags are
// applied by the caller afterwards, followed by Validate.
func Load(root string) (Config, error) {
	cfg := Default(root)

	if fl, err := LoadFlutterL10n(root); err != nil {
		return cfg, err
	} else if fl != nil {
		fl.apply(&cfg)
	}

	if err := loadFile(root, &cfg); err != nil {
		return cfg, err
	}

	dotenv := filepath.Join(root, ".env")
	if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("loading %s: %w", dotenv, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "ARBKIT_"}); err != nil {
		return cfg, fmt.Errorf("reading ARBKIT_* environment: %w", err)
	}

	var keys apiKeys
	if err := env.Parse(&keys); err != nil {
		return cfg, fmt.Errorf("reading API key environment: %w", err)
	}
	cfg.APIKey = keys.first()
	if cfg.APIKey == "" {
		cfg.APIKey = settings.GetAPIKey(settings.Gemini)
	}

	return cfg, nil
}

// Validate checks the fields an operation depends on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SourceLang) == "" {
		return fmt.Errorf("source_lang must not be empty")
	}
	if _, err := discover.NewPattern(c.FilePattern); err != nil {
		return fmt.Errorf("file_pattern: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// Pattern returns the parsed file pattern. Call Validate first.
func (c Config) Pattern() discover.Pattern {
	p, err := discover.NewPattern(c.FilePattern)
	if err != nil {
		return discover.MustPattern(DefaultFilePattern)
	}
	return p
}

// Dir returns the ARB directory resolved against Root.
func (c Config) Dir() string {
	if filepath.IsAbs(c.ArbDir) {
		return c.ArbDir
	}
	return filepath.Join(c.Root, c.ArbDir)
}

// SourcePath returns the path of the source-language ARB file.
func (c Config) SourcePath() string {
	return c.Pattern().Path(c.Dir(), c.SourceLang)
}

// CanTranslate reports whether automatic translation is enabled and
// possible.
func (c Config) CanTranslate() bool {
	return c.AutoTranslate && c.APIKey != ""
}
