package rubocopast

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/liijunwei/rubocop-ast/parser"
)

// DefaultRubyVersion is the dialect assumed when a project config does not
// name one.
const DefaultRubyVersion = parser.Ruby34

// Config is the project-level processing configuration, read from a YAML
// file in the spirit of .rubocop.yml.
type Config struct {
	// TargetRubyVersion selects the parser backend for every file.
	TargetRubyVersion parser.Version `yaml:"TargetRubyVersion"`
	// AllDiagnosticsFatal escalates every parser diagnostic to fatal; see
	// parser.Options.
	AllDiagnosticsFatal bool `yaml:"AllDiagnosticsFatal"`
	// Include lists doublestar glob patterns of the files to process.
	Include []string `yaml:"Include"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		TargetRubyVersion: DefaultRubyVersion,
		Include:           []string{"**/*.rb"},
	}
}

// LoadConfig reads and validates a YAML config file. A missing file is not
// an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := parser.Lookup(cfg.TargetRubyVersion); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**/*.rb"}
	}
	return cfg, nil
}

// Processor builds a Processor from the configuration, resolving sources
// from the filesystem.
func (c *Config) Processor() *Processor {
	return &Processor{
		Resolver:      &SourceResolver{},
		RubyVersion:   c.TargetRubyVersion,
		ParserOptions: parser.Options{AllDiagnosticsFatal: c.AllDiagnosticsFatal},
	}
}
