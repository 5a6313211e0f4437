package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from the file,
// bypassing the viper singleton. Needed when the working directory has
// changed since Initialize, or before Initialize has run.
type LocalConfig struct {
	DBPath     string `yaml:"db"`
	Actor      string `yaml:"actor"`
	BufferSize int    `yaml:"buffer-size"`
}

// LoadLocalConfig parses config.yaml from the given .alearn directory.
// Returns an empty LocalConfig (not nil) when the file is missing or
// malformed.
func LoadLocalConfig(alearnDir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(alearnDir, "config.yaml"))
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv applies environment overrides on top of the file.
// ALEARN_DB and ALEARN_ACTOR take precedence over config.yaml values.
func LoadLocalConfigWithEnv(alearnDir string) *LocalConfig {
	cfg := LoadLocalConfig(alearnDir)
	if v := os.Getenv("ALEARN_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ALEARN_ACTOR"); v != "" {
		cfg.Actor = v
	}
	return cfg
}
