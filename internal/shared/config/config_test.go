package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "env: prod\nobject_store: MINIO\nrenderer: html\nsession_ttl: 15m\nllm_provider: bogus\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "minio" {
		t.Fatalf("expected minio, got %q", cfg.ObjectStoreType)
	}
	if cfg.Renderer != "html" {
		t.Fatalf("expected html renderer, got %q", cfg.Renderer)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %v", cfg.SessionTTL)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("unknown provider should fall back to gemini, got %q", cfg.LLMProvider)
	}
	if cfg.SignedURLTTL != 30*time.Minute {
		t.Fatalf("expected default signed url ttl, got %v", cfg.SignedURLTTL)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\nsession_backend: redis\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("SESSION_TTL", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected env port, got %q", cfg.Port)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected redis backend from file, got %q", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Fatalf("expected 45m, got %v", cfg.SessionTTL)
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{"PROD": "production", "staging": "staging", "": "dev", "local": "local"}
	for in, want := range cases {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
