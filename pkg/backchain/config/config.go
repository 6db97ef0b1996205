package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/unify"
)

// DefaultMaxSteps is the step bound used when a config file does not set one.
const DefaultMaxSteps = 1000

// Config is the YAML configuration of the engine and its tools.
type Config struct {
	Engine    Engine    `yaml:"engine"`
	Log       Log       `yaml:"log"`
	Knowledge Knowledge `yaml:"knowledge"`
}

// Engine controls the search.
type Engine struct {
	MaxSteps    int    `yaml:"max_steps"`
	Selector    string `yaml:"selector"`
	Seed        int64  `yaml:"seed"`
	UnifyPolicy string `yaml:"unify_policy"`
}

// Log controls the zap logger built by the command line tool.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Knowledge lists the statements to load. Files are knowledge-base text
// files, Facts and Rules are inline statements in the same syntax, and
// Database is a SQLite file written by the import command.
type Knowledge struct {
	Files    []string `yaml:"files"`
	Facts    []string `yaml:"facts"`
	Rules    []string `yaml:"rules"`
	Database string   `yaml:"database"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxSteps: DefaultMaxSteps,
			Selector: "random",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a YAML config file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", path, internalerr.ErrNotFound)
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Engine.MaxSteps <= 0 {
		return fmt.Errorf("engine.max_steps must be positive, got %d: %w", c.Engine.MaxSteps, internalerr.ErrInvalidConfig)
	}
	if _, err := rules.NewSelector(c.Engine.Selector, c.Engine.Seed); err != nil {
		return err
	}
	if _, err := unify.ParsePolicy(c.Engine.UnifyPolicy); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: %w", c.Log.Level, internalerr.ErrInvalidConfig)
	}
	return nil
}
