package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/storage"
)

var (
	waiverDB      string
	waiverRule    string
	waiverDoc     string
	waiverSection string
	waiverPattern string
	waiverReason  string
	waiverExpires string
	waiverBy      string
	waiverAll     bool
)

var waiverCmd = &cobra.Command{
	Use:   "waiver",
	Short: "Manage issue waivers",
}

var waiverCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a waiver suppressing matching issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openWaiverDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if waiverRule == "" || waiverReason == "" || waiverExpires == "" {
			return fmt.Errorf("waiver create requires --rule, --reason and --expires")
		}
		expires, err := parseExpiry(waiverExpires)
		if err != nil {
			return err
		}
		id, err := db.CreateWaiver(strings.ToUpper(waiverRule), waiverDoc, waiverSection, waiverPattern, waiverReason, waiverBy, expires)
		if err != nil {
			return err
		}
		_ = db.LogAudit(waiverBy, "waiver:create", "", map[string]any{"id": id, "rule": waiverRule})
		fmt.Printf("waiver %d created, expires %s\n", id, expires.UTC().Format(time.RFC3339))
		return nil
	},
}

var waiverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List waivers (active only by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openWaiverDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ws, err := db.ListWaivers(!waiverAll)
		if err != nil {
			return err
		}
		if len(ws) == 0 {
			fmt.Println("no waivers")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRULE\tDOC\tSECTION\tEXPIRES\tSTATUS\tREASON")
		for _, w := range ws {
			status := "active"
			switch {
			case w.RevokedAt != nil:
				status = "revoked"
			case time.Now().After(w.ExpiresAt):
				status = "expired"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				w.ID, w.RuleID, orAny(w.Doc), orAny(w.Section),
				w.ExpiresAt.UTC().Format("2006-01-02"), status, w.Reason)
		}
		return tw.Flush()
	},
}

var waiverRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke a waiver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid waiver id %q", args[0])
		}
		db, err := openWaiverDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RevokeWaiver(id, waiverBy); err != nil {
			return err
		}
		_ = db.LogAudit(waiverBy, "waiver:revoke", "", map[string]any{"id": id})
		fmt.Printf("waiver %d revoked\n", id)
		return nil
	},
}

func openWaiverDB() (*storage.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if waiverDB == "" {
		waiverDB = cfg.Database.DSN
	}
	if waiverDB == "" {
		return nil, fmt.Errorf("waiver commands require --db (or database.dsn in config)")
	}
	db, err := storage.OpenSQLite(waiverDB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// parseExpiry accepts an RFC3339 timestamp or a duration from now ("720h").
func parseExpiry(s string) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad expiry %q (use RFC3339 or a duration like 720h)", s)
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func init() {
	waiverCmd.PersistentFlags().StringVar(&waiverDB, "db", "", "SQLite database path")
	waiverCmd.PersistentFlags().StringVar(&waiverBy, "by", "cli", "acting username for the audit log")

	waiverCreateCmd.Flags().StringVar(&waiverRule, "rule", "", "rule id to waive")
	waiverCreateCmd.Flags().StringVar(&waiverDoc, "doc", "", "restrict to a document name")
	waiverCreateCmd.Flags().StringVar(&waiverSection, "section", "", "restrict to a section id")
	waiverCreateCmd.Flags().StringVar(&waiverPattern, "pattern", "", "substring of evidence or description")
	waiverCreateCmd.Flags().StringVar(&waiverReason, "reason", "", "why the issue is acceptable for now")
	waiverCreateCmd.Flags().StringVar(&waiverExpires, "expires", "", "RFC3339 time or duration from now")

	waiverListCmd.Flags().BoolVar(&waiverAll, "all", false, "include expired and revoked waivers")

	waiverCmd.AddCommand(waiverCreateCmd, waiverListCmd, waiverRevokeCmd)
	rootCmd.AddCommand(waiverCmd)
}
