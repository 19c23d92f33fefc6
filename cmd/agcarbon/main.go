package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agcarbon/internal/config"
	apphttp "agcarbon/internal/http"
	"agcarbon/internal/loader"
	applog "agcarbon/internal/log"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local runs; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{Level: cfg.LogLevel})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client := loader.New(loader.Options{
		URL:          cfg.DatasetURL,
		SheetName:    cfg.SheetName,
		SheetKeyword: cfg.SheetKeyword,
		Timeout:      cfg.FetchTimeout,
		Logger:       logger.WithComponent(applog.ComponentLoader),
	})
	store := loader.NewStore(client)

	srv := apphttp.NewServer(":"+cfg.Port, store, cfg.DefaultStatuses, logger)

	srv.ReadTimeout = 10 * time.Second
	// Write timeout must cover the lazy first fetch of the workbook.
	srv.WriteTimeout = cfg.FetchTimeout + 15*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("starting agcarbon server", "port", cfg.Port, "dataset_url", cfg.DatasetURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
