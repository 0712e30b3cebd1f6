package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/ir"
	"github.com/reqlint/reqlint/internal/shared"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var (
	configPath string
	logFormat  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "reqlint",
	Short: "reqlint - consistency checker for objectives and requirements documents",
	Long: `reqlint loads markdown objectives, requirements, glossary and template
documents, evaluates a fixed set of consistency rules over them, and emits a
deterministic markdown report plus JSON and HTML renderings.

Runs can be persisted to SQLite for history, diffing and the report server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		format, level := cfg.Logging.Format, cfg.Logging.Level
		if logFormat != "" {
			format = logFormat
		}
		if logLevel != "" {
			level = logLevel
		}
		shared.InitLogger(format, level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reqlint version and run schema version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reqlint %s (schema %s)\n", version, ir.Version)
	},
}

// loadConfig reads the file named by --config (if any) plus REQLINT_* env.
func loadConfig() (shared.Config, error) {
	return shared.LoadConfig(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
