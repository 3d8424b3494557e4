package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/audit"
	"github.com/feedaudit/feedaudit/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <audit-id>",
	Short: "Show audit progress and compliance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := types.ParseAuditID(args[0])
	if err != nil {
		return fmt.Errorf("invalid audit id %q: %w", args[0], err)
	}

	a, err := st.GetAudit(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("audit:     %s (%s)\n", a.Name, a.ID)
	fmt.Printf("state:     %s, progress %d%%\n", a.State, a.Progress)
	fmt.Printf("scope:     %d products x %d rules (%d/%d evaluations)\n",
		a.TotalProducts, a.TotalRules, a.RulesProcessed, a.TotalProducts*a.TotalRules)
	fmt.Printf("products:  compliant=%d warning=%d critical=%d\n",
		a.CompliantProducts, a.WarningProducts, a.CriticalProducts)

	_, breakdown, err := audit.Aggregate(cmd.Context(), st, id)
	if err != nil {
		return err
	}
	if len(breakdown) > 0 {
		fmt.Println("per rule (distinct products):")
		for _, b := range breakdown {
			fmt.Printf("  %-40s ok=%.1f%% warning=%.1f%% critical=%.1f%% (n=%d)\n",
				b.RuleName, b.OKPct, b.WarningPct, b.CriticalPct, b.Products)
		}
	}
	return nil
}
