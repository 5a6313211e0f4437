// Package config loads alearn settings from .alearn/config.yaml, environment
// variables and defaults, in that order of increasing precedence for env vars
// over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultDBFile      = "alearn.db"
	DefaultBufferSize  = 20
	DefaultListenAddr  = ":8077"
	DefaultWatchModels = false
)

// Config is the resolved runtime configuration
type Config struct {
	DBPath       string `mapstructure:"db"`
	Actor        string `mapstructure:"actor"`
	BufferSize   int    `mapstructure:"buffer-size"`
	ListenAddr   string `mapstructure:"listen"`
	BKTModelPath string `mapstructure:"bkt-model"`
	PolicyPath   string `mapstructure:"policy-model"`
	WatchModels  bool   `mapstructure:"watch-models"`
}

// Initialize sets up the viper singleton: config file discovery, env
// overrides with the ALEARN_ prefix, and defaults. Safe to call when no
// config file exists yet.
func Initialize() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if dir, err := FindProjectDir(); err == nil {
		viper.AddConfigPath(dir)
	}

	viper.SetEnvPrefix("ALEARN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("buffer-size", DefaultBufferSize)
	viper.SetDefault("listen", DefaultListenAddr)
	viper.SetDefault("watch-models", DefaultWatchModels)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load returns the resolved configuration. DBPath falls back to the project
// directory's database when unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.DBPath == "" {
		if dir, err := FindProjectDir(); err == nil {
			cfg.DBPath = filepath.Join(dir, DefaultDBFile)
		}
	}
	return cfg, nil
}

// FindProjectDir walks up from the working directory looking for an .alearn
// directory
func FindProjectDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ".alearn")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return "", fmt.Errorf("no .alearn directory found (run 'alearn init' first)")
}

// InitProjectDir creates .alearn/ under root with a starter config.yaml.
// Returns the directory path; an existing directory is left untouched.
func InitProjectDir(root string) (string, error) {
	dir := filepath.Join(root, ".alearn")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	starter := `# alearn configuration
# db: ` + DefaultDBFile + `
# actor: methodist
# buffer-size: 20
# listen: "` + DefaultListenAddr + `"
# bkt-model: models/bkt.json
# policy-model: models/policy.json
# watch-models: false
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(starter), 0o600); err != nil {
		return "", fmt.Errorf("failed to write starter config: %w", err)
	}
	return dir, nil
}
