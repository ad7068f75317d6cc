package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8480" {
		t.Fatalf("default listen addr: %q", cfg.ListenAddr)
	}
	if cfg.EngineMoveTimeMillis != 1500 || cfg.TranscriptLimit != 40 {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if cfg.DefaultWhite != "human" || cfg.DefaultBlack != "engine" {
		t.Fatalf("default sources wrong: %s/%s", cfg.DefaultWhite, cfg.DefaultBlack)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("ENGINE_MOVE_TIME_MS", "300")
	t.Setenv("GEMINI_API_KEY", "k123")
	t.Setenv("DEFAULT_BLACK", "advisor")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.EngineMoveTimeMillis != 300 {
		t.Fatalf("env overrides ignored: %+v", cfg)
	}
	if cfg.AdvisorAPIKey != "k123" || cfg.DefaultBlack != "advisor" {
		t.Fatalf("env overrides ignored: %+v", cfg)
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lab.yaml")
	body := []byte("listen_addr: \":7000\"\nengine_threads: 8\nadvisor_model: custom-model\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CHESS_LAB_CONFIG", path)
	t.Setenv("LISTEN_ADDR", ":7100") // env beats file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7100" {
		t.Fatalf("env should override file: %q", cfg.ListenAddr)
	}
	if cfg.EngineThreads != 8 || cfg.AdvisorModel != "custom-model" {
		t.Fatalf("file values ignored: %+v", cfg)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	t.Setenv("CHESS_LAB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
