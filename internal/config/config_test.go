package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-key")
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("OPENAI_REALTIME_MODEL", "")
	cfg := Load()
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.RealtimeModel == "" {
		t.Fatalf("expected default realtime model")
	}
	if cfg.OpenAIKey != "test-key" {
		t.Fatalf("expected key from env, got %q", cfg.OpenAIKey)
	}
}
