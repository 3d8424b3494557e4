package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional file using viper.
// CLI flags > environment > config file > defaults precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults matching Default()
	v.SetDefault("db_url", "")
	v.SetDefault("chunk_size", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.mapping_file", "")
	v.SetDefault("watch.rule_ids", []string{})
	v.SetDefault("watch.debounce_seconds", 2)

	// Bind environment variables with FA_ prefix
	v.SetEnvPrefix("FA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL: v.GetString("db_url"),
		ChunkSize:   v.GetInt("chunk_size"),
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		Watch: WatchConfig{
			Dir:             v.GetString("watch.dir"),
			MappingFile:     v.GetString("watch.mapping_file"),
			RuleIDs:         v.GetStringSlice("watch.rule_ids"),
			DebounceSeconds: v.GetInt("watch.debounce_seconds"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks positive chunk size and debounce, known log settings.
func validate(cfg *Config) error {
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.Watch.DebounceSeconds < 0 {
		return fmt.Errorf("watch.debounce_seconds must not be negative, got %d", cfg.Watch.DebounceSeconds)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.LogFormat)
	}
	return nil
}
