package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "version: \"1\"\ncredential:\n  secret_key: topsecret\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.Credential.GraceHours != 48 {
		t.Errorf("grace hours = %d, want 48", cfg.Credential.GraceHours)
	}
	if cfg.Render.FetchTimeoutMs != 5000 {
		t.Errorf("fetch timeout = %d, want 5000", cfg.Render.FetchTimeoutMs)
	}
	if cfg.Archive.Workers != 8 || cfg.Archive.QueueDepth != 256 {
		t.Errorf("archive defaults = %d/%d, want 8/256", cfg.Archive.Workers, cfg.Archive.QueueDepth)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing secret", "version: \"1\"\n"},
		{"bad color", "version: \"1\"\ncredential:\n  secret_key: s\nrender:\n  accent_color: blue\n"},
		{"missing version", "credential:\n  secret_key: s\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := NewLoader(writeConfig(t, tc.body))
			if err != nil {
				t.Fatalf("NewLoader: %v", err)
			}
			if err := Validate(l.Config()); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSecretFromFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyPath, []byte("file-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := CredentialConf{SecretKeyFile: keyPath}
	key, err := c.Secret()
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if string(key) != "file-secret" {
		t.Errorf("key = %q, want trimmed file contents", key)
	}
}
