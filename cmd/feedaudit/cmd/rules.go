package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feedaudit/feedaudit/internal/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage audit rules",
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import rule definitions from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	RunE:  runRulesList,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesListCmd)
}

// ruleDefinition is the import file shape of one rule.
type ruleDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Criticality types.Criticality `json:"criticality"`
	Condition   json.RawMessage   `json:"condition"`
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}
	var defs []ruleDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("parse rules file: %w", err)
	}

	for i, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("rule %d: name required", i)
		}
		if !def.Criticality.Valid() {
			return fmt.Errorf("rule %q: criticality must be warning or critical", def.Name)
		}
		cond, err := types.ParseCondition(def.Condition)
		if err != nil {
			return fmt.Errorf("rule %q: %w", def.Name, err)
		}
		rule := types.Rule{
			ID:          types.NewRuleID(),
			Name:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			Criticality: def.Criticality,
			Condition:   cond,
		}
		if err := st.CreateRule(cmd.Context(), rule); err != nil {
			return fmt.Errorf("store rule %q: %w", def.Name, err)
		}
		fmt.Printf("%s  %s\n", rule.ID, rule.Name)
	}
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rules, err := st.ListRules(cmd.Context())
	if err != nil {
		return err
	}
	for _, r := range rules {
		fmt.Printf("%s  %-10s %-14s %s\n", r.ID, r.Criticality, r.Condition.Kind(), r.Name)
	}
	return nil
}
