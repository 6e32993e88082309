package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/docfold/mdrebase/internal/rewrite"
)

// DefaultFile is the config file looked up in the working directory when no
// explicit path is given.
const DefaultFile = ".mdrebase.yaml"

// EnvConfig names the environment variable holding an alternate config path.
const EnvConfig = "MDREBASE_CONFIG"

// Defaults carried over from the original migration script. Overridable,
// but these literals are the documented behavior.
const (
	DefaultRoot   = "../docs/docs/contracts/src"
	DefaultLabel  = "**Inherits:**"
	DefaultBase   = "docs/docs/src"
	DefaultAnchor = "docs/docs/src/src/X/X/"
)

// DefaultDebounce is the quiet period watch mode waits for before
// reprocessing changed files.
const DefaultDebounce = 200 * time.Millisecond

// Config is the full mdrebase configuration.
type Config struct {
	Root    string        `yaml:"root"`
	Rewrite RewriteConfig `yaml:"rewrite"`
	Walk    WalkConfig    `yaml:"walk"`
	Prune   PruneConfig   `yaml:"prune"`
	Journal JournalConfig `yaml:"journal"`
	Watch   WatchConfig   `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Rewrite.Validate(); err != nil {
		return err
	}
	if err := c.Walk.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// Rules returns the rewrite rules this configuration describes.
func (c *Config) Rules() rewrite.Rules {
	return rewrite.Rules{
		Label:  c.Rewrite.Label,
		Base:   c.Rewrite.Base,
		Anchor: c.Rewrite.Anchor,
	}
}

// RewriteConfig holds the field label and the path pair used to rebase
// references.
type RewriteConfig struct {
	Label  string `yaml:"label"`
	Base   string `yaml:"base"`
	Anchor string `yaml:"anchor"`
}

// Validate validates the rewrite configuration.
func (c *RewriteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Label, validation.Required),
		validation.Field(&c.Base, validation.Required),
		validation.Field(&c.Anchor, validation.Required),
	)
}

// WalkConfig controls which files the walker selects.
type WalkConfig struct {
	Extensions []string `yaml:"extensions"`
}

// Validate validates the walk configuration.
func (c *WalkConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.Required)),
	)
}

// PruneConfig lists file names (matched case-insensitively against base
// names) deleted after processing. An empty list disables pruning.
type PruneConfig struct {
	Names []string `yaml:"names"`
}

// JournalConfig holds the journal database location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// ResolvePath returns the journal database path, defaulting to journal.db
// under the mdrebase config directory.
func (c *JournalConfig) ResolvePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(Dir(), "journal.db")
}

// WatchConfig holds watch-mode tuning.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("watch: debounce must not be negative")
	}
	return nil
}

// Duration wraps time.Duration so YAML values like "200ms" decode.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// NewDefault returns a Config populated with the documented defaults.
func NewDefault() *Config {
	return &Config{
		Root: DefaultRoot,
		Rewrite: RewriteConfig{
			Label:  DefaultLabel,
			Base:   DefaultBase,
			Anchor: DefaultAnchor,
		},
		Walk: WalkConfig{
			Extensions: []string{".md"},
		},
		Prune: PruneConfig{
			Names: []string{"readme.md", "summary.md"},
		},
		Watch: WatchConfig{
			Debounce: Duration(DefaultDebounce),
		},
	}
}

// Load reads the YAML file at path, expands environment variables, applies
// it over the defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := NewDefault()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to the defaults
// when it does not.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewDefault(), nil
	}
	return Load(path)
}

// Resolve returns the effective configuration. An explicit path must exist;
// otherwise $MDREBASE_CONFIG is consulted, then DefaultFile in the working
// directory, then the built-in defaults.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return Load(env)
	}
	return LoadOrDefault(DefaultFile)
}
