package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stash/internal/auth"
	"stash/internal/config"
	"stash/internal/db"
	httpx "stash/internal/http"
	"stash/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API",
	RunE:  serveF,
}

func serveF(cmd *cobra.Command, args []string) error {
	cfg, log, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	return nil
}

// bootstrap loads config, builds the logger and opens a migrated database.
func bootstrap() (config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	gdb, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		_ = db.Close(gdb)
		return config.Config{}, nil, nil, err
	}
	return cfg, log, gdb, nil
}
