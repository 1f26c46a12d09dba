package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the process configuration of the api server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	// Path to the sqlite database. ":memory:" keeps everything in the process.
	Path string `yaml:"path"`
}

type GameConfig struct {
	TotalRounds int `yaml:"total_rounds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: "wheel.db"},
		Game:   GameConfig{TotalRounds: 5},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at filename on top of the defaults. A missing
// file is not an error: defaults plus environment overrides are used.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if v := os.Getenv("WHEEL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("WHEEL_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("WHEEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WHEEL_TOTAL_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WHEEL_TOTAL_ROUNDS %q: %w", v, err)
		}
		cfg.Game.TotalRounds = n
	}

	if cfg.Game.TotalRounds < 1 {
		return nil, fmt.Errorf("game.total_rounds must be positive, got %d", cfg.Game.TotalRounds)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return cfg, nil
}

// LogLevel returns the parsed level, falling back to info.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
