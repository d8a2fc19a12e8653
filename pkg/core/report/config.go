package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config carries optional report settings loaded from a YAML file. Command
// line flags override anything set here.
type Config struct {
	Title        string   `yaml:"title"`
	Subtitle     string   `yaml:"subtitle"`
	Logo         string   `yaml:"logo"`
	HSOTable     string   `yaml:"hso_table"`
	OpsTable     string   `yaml:"ops_table"`
	Region       string   `yaml:"region"`
	Profile      string   `yaml:"profile"`
	Projects     []string `yaml:"projects"`
	ExtraColumns []string `yaml:"extra_columns"`
	HistoryDSN   string   `yaml:"history_dsn"`
}

// LoadConfig reads a YAML config file. An empty path returns a zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
