package config

import (
	"fmt"
	"os"
	"strings"
)

// EngineConfig is the top-level YAML structure.
type EngineConfig struct {
	Version    string         `yaml:"version"`
	Credential CredentialConf `yaml:"credential"`
	Render     RenderConf     `yaml:"render"`
	Archive    ArchiveConf    `yaml:"archive"`
}

// CredentialConf configures the signer/validator pair. Exactly one of
// SecretKey / SecretKeyFile must be set; the key is fixed for the
// process lifetime and never hot-reloaded.
type CredentialConf struct {
	SecretKey     string `yaml:"secret_key"`
	SecretKeyFile string `yaml:"secret_key_file"`
	GraceHours    int    `yaml:"grace_hours"`
}

// Secret resolves the shared signing key.
func (c *CredentialConf) Secret() ([]byte, error) {
	if c.SecretKey != "" {
		return []byte(c.SecretKey), nil
	}
	if c.SecretKeyFile != "" {
		data, err := os.ReadFile(c.SecretKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read secret key file: %w", err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return nil, fmt.Errorf("secret key file %s is empty", c.SecretKeyFile)
		}
		return []byte(key), nil
	}
	return nil, fmt.Errorf("credential: one of secret_key or secret_key_file is required")
}

// RenderConf holds badge appearance defaults and asset settings. These
// are the values swapped on hot reload.
type RenderConf struct {
	AssetRoot        string `yaml:"asset_root"`
	FetchTimeoutMs   int    `yaml:"fetch_timeout_ms"`
	BackgroundColor  string `yaml:"background_color"`
	AccentColor      string `yaml:"accent_color"`
	TextColor        string `yaml:"text_color"`
	PlaceholderLabel string `yaml:"placeholder_label"`
	SecurityNotice   string `yaml:"security_notice"`
}

// ArchiveConf holds tunable concurrency settings for batch rendering.
type ArchiveConf struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}
