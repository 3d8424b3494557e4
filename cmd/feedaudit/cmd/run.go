package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/audit"
	"github.com/feedaudit/feedaudit/internal/feed"
	"github.com/feedaudit/feedaudit/internal/types"
)

var (
	runFeedPath    string
	runMappingPath string
	runRuleIDs     []string
	runName        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit a feed file against a rule selection",
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFeedPath, "feed", "", "tab-delimited feed file")
	runCmd.Flags().StringVar(&runMappingPath, "mapping", "", "column mapping JSON file")
	runCmd.Flags().StringSliceVar(&runRuleIDs, "rules", nil, "rule ids to apply (comma-separated)")
	runCmd.Flags().StringVar(&runName, "name", "", "audit name (defaults to feed filename)")
	runCmd.MarkFlagRequired("feed")
	runCmd.MarkFlagRequired("mapping")
	runCmd.MarkFlagRequired("rules")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	raw, err := os.ReadFile(runFeedPath)
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	mapping, err := feed.LoadMapping(runMappingPath)
	if err != nil {
		return err
	}
	ruleIDs, err := parseRuleIDs(runRuleIDs)
	if err != nil {
		return err
	}

	name := runName
	if name == "" {
		name = filepath.Base(runFeedPath)
	}

	svc := audit.NewService(st, cfg.ChunkSize, nil)
	a, err := svc.RunAudit(cmd.Context(), name, raw, mapping, ruleIDs)
	if err != nil {
		return err
	}

	fmt.Printf("audit %s completed: %d products x %d rules\n", a.ID, a.TotalProducts, a.TotalRules)
	fmt.Printf("compliant=%d warning=%d critical=%d\n",
		a.CompliantProducts, a.WarningProducts, a.CriticalProducts)
	return nil
}

// parseRuleIDs validates the rule id flags up front so typos fail before
// any feed work happens.
func parseRuleIDs(raw []string) ([]types.RuleID, error) {
	ids := make([]types.RuleID, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := types.ParseRuleID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid rule id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one rule id required")
	}
	return ids, nil
}
