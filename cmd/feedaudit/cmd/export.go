package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/audit"
	"github.com/feedaudit/feedaudit/internal/types"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <audit-id>",
	Short: "Export audit results as a tab-separated table",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return audit.Export(cmd.Context(), st, id, out)
}
