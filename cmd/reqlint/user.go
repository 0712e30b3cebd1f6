package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/security"
	"github.com/reqlint/reqlint/internal/storage"
)

var (
	userDB       string
	userName     string
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage report server accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account for the report server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userName == "" || userPassword == "" {
			return fmt.Errorf("user add requires --username and --password")
		}
		if userRole != "admin" && userRole != "viewer" {
			return fmt.Errorf("role must be admin or viewer")
		}
		if err := security.ValidatePassword(userPassword); err != nil {
			return err
		}
		db, err := openUserDB()
		if err != nil {
			return err
		}
		defer db.Close()

		hash, err := security.HashPassword(userPassword)
		if err != nil {
			return err
		}
		id, err := db.CreateUser(userName, hash, userRole)
		if err != nil {
			return err
		}
		_ = db.LogAudit(userName, "user:create", "", map[string]any{"id": id, "role": userRole})
		fmt.Printf("user %s (%s) created\n", userName, userRole)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openUserDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("no users")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.UTC().Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

func openUserDB() (*storage.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if userDB == "" {
		userDB = cfg.Database.DSN
	}
	if userDB == "" {
		return nil, fmt.Errorf("user commands require --db (or database.dsn in config)")
	}
	db, err := storage.OpenSQLite(userDB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func init() {
	userCmd.PersistentFlags().StringVar(&userDB, "db", "", "SQLite database path")
	userAddCmd.Flags().StringVar(&userName, "username", "", "account name")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "account password")
	userAddCmd.Flags().StringVar(&userRole, "role", "viewer", "admin or viewer")
	userCmd.AddCommand(userAddCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}
