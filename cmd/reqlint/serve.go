package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqlint/reqlint/internal/api"
	"github.com/reqlint/reqlint/internal/storage"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored runs, reports and waivers over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr == "" {
			serveAddr = cfg.Server.Addr
		}
		if serveDB == "" {
			serveDB = cfg.Database.DSN
		}
		if serveDB == "" {
			return fmt.Errorf("serve requires --db (or database.dsn in config)")
		}

		db, err := storage.OpenSQLite(serveDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		if err := db.CreateSchema(); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if err := db.DeleteExpiredSessions(); err != nil {
			slog.Warn("session cleanup failed", "err", err)
		}
		api.RegisterStoreMetrics(db)

		srv := &api.Server{
			DB:              db,
			UserStore:       db,
			Logger:          slog.Default(),
			SessionDuration: time.Duration(cfg.Server.SessionHours) * time.Hour,
		}
		httpSrv := &http.Server{
			Addr:              serveAddr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("listening", "addr", serveAddr, "db", serveDB)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, e.g. :8787")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path")
	rootCmd.AddCommand(serveCmd)
}
