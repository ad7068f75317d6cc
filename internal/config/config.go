package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	StockfishPath        string `yaml:"stockfish_path"`
	EngineThreads        int    `yaml:"engine_threads"`
	EngineHashMB         int    `yaml:"engine_hash_mb"`
	EnginePoolSize       int    `yaml:"engine_pool_size"`
	EngineMoveTimeMillis int    `yaml:"engine_move_time_ms"`

	AdvisorBaseURL    string `yaml:"advisor_base_url"`
	AdvisorModel      string `yaml:"advisor_model"`
	AdvisorAPIKey     string `yaml:"advisor_api_key"`
	AdvisorTimeoutSec int    `yaml:"advisor_timeout_sec"`
	TranscriptLimit   int    `yaml:"transcript_limit"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	DefaultWhite string `yaml:"default_white"`
	DefaultBlack string `yaml:"default_black"`
}

// Load builds the configuration from an optional YAML file (CHESS_LAB_CONFIG)
// with environment variables taking precedence over file values.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:           ":8480",
		EngineThreads:        1,
		EngineHashMB:         64,
		EnginePoolSize:       2,
		EngineMoveTimeMillis: 1500,
		AdvisorBaseURL:       "https://generativelanguage.googleapis.com",
		AdvisorModel:         "gemini-2.0-flash",
		AdvisorTimeoutSec:    30,
		TranscriptLimit:      40,
		DefaultWhite:         "human",
		DefaultBlack:         "engine",
	}

	if path := strings.TrimSpace(os.Getenv("CHESS_LAB_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.StockfishPath, "STOCKFISH_PATH")
	setInt(&cfg.EngineThreads, "ENGINE_THREADS")
	setInt(&cfg.EngineHashMB, "ENGINE_HASH_MB")
	setInt(&cfg.EnginePoolSize, "ENGINE_POOL_SIZE")
	setInt(&cfg.EngineMoveTimeMillis, "ENGINE_MOVE_TIME_MS")

	setString(&cfg.AdvisorBaseURL, "ADVISOR_BASE_URL")
	setString(&cfg.AdvisorModel, "ADVISOR_MODEL")
	setString(&cfg.AdvisorAPIKey, "GEMINI_API_KEY")
	setInt(&cfg.AdvisorTimeoutSec, "ADVISOR_TIMEOUT_SEC")
	setInt(&cfg.TranscriptLimit, "TRANSCRIPT_LIMIT")

	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")

	setString(&cfg.DefaultWhite, "DEFAULT_WHITE")
	setString(&cfg.DefaultBlack, "DEFAULT_BLACK")

	if cfg.ListenAddr == "" {
		return nil, errors.New("LISTEN_ADDR is required")
	}
	if cfg.EngineMoveTimeMillis <= 0 {
		return nil, errors.New("ENGINE_MOVE_TIME_MS must be positive")
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
