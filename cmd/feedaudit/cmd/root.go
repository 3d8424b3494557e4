package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/config"
	"github.com/feedaudit/feedaudit/internal/logging"
	"github.com/feedaudit/feedaudit/internal/store"
)

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "feedaudit",
	Short: "feedaudit product-feed compliance auditor",
	Long:  `feedaudit evaluates configurable business rules against tab-delimited product-feed exports and reports per-record, per-rule compliance.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges the config file with persistent flag overrides and
// configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = dbURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// openStore opens the database from config and wraps it in the repository.
// Callers own the returned connection.
func openStore(cfg *config.Config) (*store.Store, *sqlx.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("--db-url required (or db_url in config)")
	}
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	st, err := store.New(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, db, nil
}
