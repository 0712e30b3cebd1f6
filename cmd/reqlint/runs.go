package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/storage"
)

var (
	runsDB    string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runsDB == "" {
			runsDB = cfg.Database.DSN
		}
		if runsDB == "" {
			return fmt.Errorf("runs requires --db (or database.dsn in config)")
		}

		db, err := storage.OpenSQLite(runsDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		rows, err := db.ListRuns(runsLimit, 0)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no runs stored")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTARTED\tISSUES\tCRITICAL\tSOURCES")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
				r.ID, r.StartedAt.Format(time.RFC3339), r.Issues, r.Critical, r.Sources)
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDB, "db", "", "SQLite database path")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum rows to list")
	rootCmd.AddCommand(runsCmd)
}
