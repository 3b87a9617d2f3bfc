// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

const (
	// DefaultConfigDir is the directory name for civlink configuration.
	DefaultConfigDir = ".civlink"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDBFile is the default SQLite database file name.
	DefaultDBFile = "civlink.db"
)

// reSQLIdentifier matches safe SQL identifiers. Relation table and column
// names are interpolated into merge statements, so anything else is
// rejected at load time.
var reSQLIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds static engine configuration (read-only after init).
type Config struct {
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Matching MatchingConfig `yaml:"matching,omitempty"`
	Merge    MergeConfig    `yaml:"merge,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// MatchingConfig holds the confidence tiers and batching for match passes.
type MatchingConfig struct {
	// AutoConfidence is the threshold for auto-linking without review.
	AutoConfidence float64 `yaml:"auto_confidence,omitempty"`
	// ReviewConfidence is the threshold for the human review queue.
	ReviewConfidence float64 `yaml:"review_confidence,omitempty"`
	// AmbiguityMargin is the score gap under which two fuzzy candidates
	// for the same record are flagged ambiguous instead of auto-linked.
	AmbiguityMargin float64 `yaml:"ambiguity_margin,omitempty"`
	// BatchSize bounds how many links one transaction writes.
	BatchSize int `yaml:"batch_size,omitempty"`
}

// MergeConfig holds the merge pass configuration.
type MergeConfig struct {
	// RelationTables lists every table referencing persons that a merge
	// must rewrite. The list is validated against the live schema before
	// any merge writes.
	RelationTables []entities.RelationTable `yaml:"relation_tables,omitempty"`
}

// DefaultRelationTables returns the relation tables of the standard schema.
func DefaultRelationTables() []entities.RelationTable {
	return []entities.RelationTable{
		{Name: "person_legislators", PersonColumn: "person_id", RefColumn: "legislator_id"},
		{Name: "person_sessions", PersonColumn: "person_id", RefColumn: "session_id"},
		{Name: "person_finance_entities", PersonColumn: "person_id", RefColumn: "entity_id"},
		{Name: "person_transactions", PersonColumn: "person_id", RefColumn: "transaction_id"},
		{Name: "person_reports", PersonColumn: "person_id", RefColumn: "report_id"},
	}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Matching: MatchingConfig{
			AutoConfidence:   0.8,
			ReviewConfidence: 0.4,
			AmbiguityMargin:  0.05,
			BatchSize:        200,
		},
		Merge: MergeConfig{
			RelationTables: DefaultRelationTables(),
		},
	}
}

// Load loads configuration from the .civlink directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'civlink init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DBPath(basePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("CIVLINK_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
}

// Validate checks thresholds, batching, and relation table identifiers.
func (c *Config) Validate() error {
	m := c.Matching
	if m.AutoConfidence < 0 || m.AutoConfidence > 1 {
		return fmt.Errorf("matching.auto_confidence must be in [0,1], got %v", m.AutoConfidence)
	}
	if m.ReviewConfidence < 0 || m.ReviewConfidence > 1 {
		return fmt.Errorf("matching.review_confidence must be in [0,1], got %v", m.ReviewConfidence)
	}
	if m.AmbiguityMargin < 0 || m.AmbiguityMargin > 1 {
		return fmt.Errorf("matching.ambiguity_margin must be in [0,1], got %v", m.AmbiguityMargin)
	}
	if m.BatchSize <= 0 {
		return fmt.Errorf("matching.batch_size must be positive, got %d", m.BatchSize)
	}

	if len(c.Merge.RelationTables) == 0 {
		return fmt.Errorf("merge.relation_tables must not be empty")
	}
	for _, t := range c.Merge.RelationTables {
		for _, ident := range []string{t.Name, t.PersonColumn, t.RefColumn} {
			if !reSQLIdentifier.MatchString(ident) {
				return fmt.Errorf("invalid relation table identifier: %q", ident)
			}
		}
	}

	return nil
}

// ConfigDir returns the path to the .civlink config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// DBPath returns the default SQLite database path.
func DBPath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDBFile)
}

// Exists checks if a civlink config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
