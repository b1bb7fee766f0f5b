package shogi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Engine        string            `json:"engine"`
	EngineOptions map[string]string `json:"engine_options"`
	Millis        int               `json:"millis"`
	Listen        string            `json:"listen"`
	Record        string            `json:"record"`
	MaxInvalid    int               `json:"max_invalid"`
	MaxPlies      int               `json:"max_plies"`
}

// DefaultConfig is used when no config.json is found.
func DefaultConfig() Config {
	return Config{
		Millis:     1000,
		Listen:     ":3000",
		MaxInvalid: 3,
	}
}

func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	return findConfigFrom(cwd)
}

func findConfigFrom(start string) (string, string, error) {
	dir := start
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config.json not found from %s", start)
}

// LoadConfig reads path over DefaultConfig. A relative engine path is
// resolved against the config file's directory.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Engine != "" && !filepath.IsAbs(cfg.Engine) {
		cfg.Engine = filepath.Join(filepath.Dir(path), cfg.Engine)
	}
	if cfg.Millis < 0 || cfg.MaxInvalid < 0 || cfg.MaxPlies < 0 {
		return Config{}, fmt.Errorf("%s: millis, max_invalid and max_plies must not be negative", path)
	}
	return cfg, nil
}
