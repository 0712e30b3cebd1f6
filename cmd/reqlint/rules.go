package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/rules"
)

var rulesPacks []string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rules in evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := loadRulePacks(append(rulesPacks, cfg.Analysis.Rulepacks...)); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSEVERITY\tORDER\tSUMMARY")
		for _, r := range rules.List(rules.Settings{}) {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.DefaultSeverity, r.Order, r.Summary)
		}
		return tw.Flush()
	},
}

func init() {
	rulesCmd.Flags().StringSliceVar(&rulesPacks, "rulepack", nil, "extra YAML rule packs")
	rootCmd.AddCommand(rulesCmd)
}
