package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/store"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "show migration status instead of applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateStatus {
		statuses, err := store.MigrateStatus(db)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = fmt.Sprintf("applied (%dms)", s.ExecutionMs)
			}
			fmt.Printf("%-30s %s\n", s.ID, state)
		}
		return nil
	}

	if err := store.MigrateUp(db); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}
