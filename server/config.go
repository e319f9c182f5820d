package server

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Config is the lectern server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string `toml:"listen_addr"`

	// Upstream AI producer URL (summarizer / transcriber / grader backend)
	UpstreamURL string `toml:"upstream_url"`

	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	DBPath string `toml:"db_path"`

	// Debug enables debug logging and the /debug/pprof endpoints.
	Debug bool `toml:"debug"`

	// MinTranscriptChars is the minimum accepted transcript length.
	MinTranscriptChars int `toml:"min_transcript_chars"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":8080",
		UpstreamURL:        "http://localhost:8000",
		MinTranscriptChars: 50,
	}
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return config, nil
}

// WatchConfig watches the config file and invokes onChange with the freshly
// loaded config on every write. It returns a stop function. Reload failures
// are logged and the previous config stays in effect.
func WatchConfig(path string, logger *zap.Logger, onChange func(Config)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				config, err := LoadConfig(path)
				if err != nil {
					logger.Warn("config reload failed", zap.Error(err))
					continue
				}
				logger.Info("config reloaded", zap.String("path", path))
				onChange(config)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return watcher.Close, nil
}
