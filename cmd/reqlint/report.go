package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/reporting"
	"github.com/reqlint/reqlint/internal/storage"
)

var (
	reportRunID string
	reportOut   string
	reportDB    string
	reportPrint bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-emit the reports for a stored run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if reportOut == "" {
			reportOut = cfg.Reporting.OutDir
		}
		if reportDB == "" {
			reportDB = cfg.Database.DSN
		}
		if reportDB == "" {
			return fmt.Errorf("report requires --db (or database.dsn in config)")
		}

		db, err := storage.OpenSQLite(reportDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		run, err := loadRunOrLatest(db, reportRunID)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(reportOut, 0o755); err != nil {
			return err
		}
		var paths reportPaths
		if paths.Markdown, err = reporting.WriteMarkdown(run.ID, reportOut, &run); err != nil {
			return err
		}
		if paths.JSON, err = reporting.WriteJSON(run.ID, reportOut, &run); err != nil {
			return err
		}
		if paths.HTML, err = reporting.WriteHTML(run.ID, reportOut, &run); err != nil {
			return err
		}

		printSummary(&run, paths)
		if reportPrint {
			return printMarkdown(reporting.RenderMarkdown(&run))
		}
		return nil
	},
}

func loadRunOrLatest(db *storage.DB, id string) (ir.Run, error) {
	if id == "" || id == "latest" {
		return db.LoadLatestRun()
	}
	return db.LoadRun(id)
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "latest", "run id (or \"latest\")")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "report output directory")
	reportCmd.Flags().StringVar(&reportDB, "db", "", "SQLite database path")
	reportCmd.Flags().BoolVar(&reportPrint, "print", false, "render the markdown report to stdout")
	rootCmd.AddCommand(reportCmd)
}
