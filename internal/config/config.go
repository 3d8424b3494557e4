// Package config provides configuration management for feedaudit.
package config

// Config holds the audit pipeline configuration.
type Config struct {
	DatabaseURL string
	ChunkSize   int
	LogLevel    string
	LogFormat   string
	Watch       WatchConfig
}

// WatchConfig configures the feed-drop watcher.
type WatchConfig struct {
	Dir             string
	MappingFile     string
	RuleIDs         []string
	DebounceSeconds int
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		ChunkSize: 100,
		LogLevel:  "info",
		LogFormat: "text",
		Watch: WatchConfig{
			DebounceSeconds: 2,
		},
	}
}
