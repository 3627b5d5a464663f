package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes. Hot
// reload is limited to render appearance settings; callers must not
// re-derive the signing key from a reloaded config.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *EngineConfig
	onChange []func(*EngineConfig)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *EngineConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*EngineConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on
// file changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Log and continue with old config.
						continue
					}
					l.mu.Lock()
					l.current = cfg
					callbacks := make([]func(*EngineConfig), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(cfg)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*EngineConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*EngineConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*EngineConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	// Apply defaults.
	if cfg.Credential.GraceHours == 0 {
		cfg.Credential.GraceHours = 48
	}
	if cfg.Render.AssetRoot == "" {
		cfg.Render.AssetRoot = "assets"
	}
	if cfg.Render.FetchTimeoutMs == 0 {
		cfg.Render.FetchTimeoutMs = 5000
	}
	if cfg.Render.BackgroundColor == "" {
		cfg.Render.BackgroundColor = "#ffffff"
	}
	if cfg.Render.AccentColor == "" {
		cfg.Render.AccentColor = "#1f6feb"
	}
	if cfg.Render.TextColor == "" {
		cfg.Render.TextColor = "#1b1f24"
	}
	if cfg.Render.PlaceholderLabel == "" {
		cfg.Render.PlaceholderLabel = "NO PHOTO"
	}
	if cfg.Render.SecurityNotice == "" {
		cfg.Render.SecurityNotice = "This badge remains property of the event organizer. Report loss immediately."
	}
	if cfg.Archive.Workers == 0 {
		cfg.Archive.Workers = 8
	}
	if cfg.Archive.QueueDepth == 0 {
		cfg.Archive.QueueDepth = 256
	}
	return &cfg, nil
}
