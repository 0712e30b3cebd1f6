package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/reporting"
	"github.com/reqlint/reqlint/internal/storage"
)

var (
	diffBase string
	diffHead string
	diffOut  string
	diffDB   string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the issues of two stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if diffOut == "" {
			diffOut = cfg.Reporting.OutDir
		}
		if diffDB == "" {
			diffDB = cfg.Database.DSN
		}
		if diffBase == "" || diffHead == "" {
			return fmt.Errorf("diff requires --base and --head")
		}
		if diffDB == "" {
			return fmt.Errorf("diff requires --db (or database.dsn in config)")
		}

		db, err := storage.OpenSQLite(diffDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		base, err := db.LoadRun(diffBase)
		if err != nil {
			return fmt.Errorf("load base run: %w", err)
		}
		head, err := db.LoadRun(diffHead)
		if err != nil {
			return fmt.Errorf("load head run: %w", err)
		}

		path, err := reporting.WriteDiffJSON(diffBase, diffHead, diffOut, &base, &head)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffBase, "base", "", "base run id")
	diffCmd.Flags().StringVar(&diffHead, "head", "", "head run id")
	diffCmd.Flags().StringVar(&diffOut, "out", "", "output directory")
	diffCmd.Flags().StringVar(&diffDB, "db", "", "SQLite database path")
	rootCmd.AddCommand(diffCmd)
}
