package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# civlink configuration

# sqlite:
#   path: .civlink/civlink.db (or set CIVLINK_DB_PATH env var)

matching:
  auto_confidence: 0.8
  review_confidence: 0.4
  ambiguity_margin: 0.05
  batch_size: 200

merge:
  relation_tables:
    - name: person_legislators
      person_column: person_id
      ref_column: legislator_id
    - name: person_sessions
      person_column: person_id
      ref_column: session_id
    - name: person_finance_entities
      person_column: person_id
      ref_column: entity_id
    - name: person_transactions
      person_column: person_id
      ref_column: transaction_id
    - name: person_reports
      person_column: person_id
      ref_column: report_id
`

// WriteDefault creates the .civlink directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
