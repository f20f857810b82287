package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration. Account credentials and the
// webhook verify token are intentionally not here: those come from the
// environment (see internal/accounts and main).
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	GraphAPI struct {
		BaseURL string `yaml:"base_url"`
		Version string `yaml:"version"`
	} `yaml:"graph_api"`
	Keywords struct {
		Path string `yaml:"path"`
	} `yaml:"keywords"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if config.GraphAPI.BaseURL == "" {
		config.GraphAPI.BaseURL = "https://graph.facebook.com"
	}
	if config.GraphAPI.Version == "" {
		config.GraphAPI.Version = "v19.0"
	}
	if config.Keywords.Path == "" {
		config.Keywords.Path = "reel_keywords.json"
	}

	return config, nil
}
