package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/audit"
	"github.com/feedaudit/feedaudit/internal/feed"
	"github.com/feedaudit/feedaudit/internal/watch"
)

var (
	watchMappingPath string
	watchRuleIDs     []string
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Audit feed files dropped into a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchMappingPath, "mapping", "", "column mapping JSON file")
	watchCmd.Flags().StringSliceVar(&watchRuleIDs, "rules", nil, "rule ids to apply (comma-separated)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	dir := cfg.Watch.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("watch directory required (argument or watch.dir in config)")
	}
	mappingPath := watchMappingPath
	if mappingPath == "" {
		mappingPath = cfg.Watch.MappingFile
	}
	if mappingPath == "" {
		return fmt.Errorf("--mapping required (or watch.mapping_file in config)")
	}
	rawIDs := watchRuleIDs
	if len(rawIDs) == 0 {
		rawIDs = cfg.Watch.RuleIDs
	}
	ruleIDs, err := parseRuleIDs(rawIDs)
	if err != nil {
		return err
	}
	mapping, err := feed.LoadMapping(mappingPath)
	if err != nil {
		return err
	}

	svc := audit.NewService(st, cfg.ChunkSize, nil)
	handler := func(ctx context.Context, path string) error {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		a, err := svc.RunAudit(ctx, filepath.Base(path), raw, mapping, ruleIDs)
		if err != nil {
			return err
		}
		slog.Info("dropped feed audited",
			"audit_id", a.ID, "compliant", a.CompliantProducts,
			"warning", a.WarningProducts, "critical", a.CriticalProducts)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debounce := time.Duration(cfg.Watch.DebounceSeconds) * time.Second
	w := watch.New(dir, debounce, handler, nil)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
