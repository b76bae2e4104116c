package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("ALLOWED_USERS", "1:2")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.TelegramBotToken != "tok" {
		t.Fatalf("token not read: %q", cfg.TelegramBotToken)
	}
	if len(cfg.AllowedUsers) != 2 || cfg.AllowedUsers[1] != 2 {
		t.Fatalf("allowed users: %+v", cfg.AllowedUsers)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("default provider: %s", cfg.LLMProvider)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("default timeout: %v", cfg.RequestTimeout)
	}
	if cfg.CredentialsFilePath != "data/user_secrets.json" {
		t.Fatalf("default credentials path: %s", cfg.CredentialsFilePath)
	}
}

func TestLoadLenses(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "lenses.toml")
	data := `
[[lens]]
key = "pricing"
name = "Pricing"
context = "pricing experiments"

[[lens]]
key = "lens_growth"
name = "Growth"
context = "override"
`
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := LoadLenses(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "lens_pricing" {
		t.Fatalf("key not prefixed: %q", entries[0].Key)
	}
	if entries[1].Context != "override" {
		t.Fatalf("context: %q", entries[1].Context)
	}
}

func TestLoadLenses_EmptyPathAndMissingKey(t *testing.T) {
	entries, err := LoadLenses("")
	if err != nil || entries != nil {
		t.Fatalf("empty path: %v %v", entries, err)
	}

	p := filepath.Join(t.TempDir(), "bad.toml")
	_ = os.WriteFile(p, []byte("[[lens]]\nname = \"x\"\n"), 0o644)
	if _, err := LoadLenses(p); err == nil {
		t.Fatalf("expected error for entry without key")
	}
}
