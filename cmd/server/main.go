/*
main.go - Retainer ledger server entrypoint

PURPOSE:
  Boots the HTTP server: loads configuration, opens the SQLite ledger store,
  connects the artifact gateway, and serves the API with graceful shutdown.

USAGE:
  go run ./cmd/server                 # defaults: port 8080, retainer.db
  go run ./cmd/server -config cfg.yml
  go run ./cmd/server -port 9090 -db /var/lib/retainer.db
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/retainer-engine/api"
	"github.com/warp/retainer-engine/artifact"
	"github.com/warp/retainer-engine/config"
	"github.com/warp/retainer-engine/issuance"
	"github.com/warp/retainer-engine/pdf"
	"github.com/warp/retainer-engine/pkg/logger"
	"github.com/warp/retainer-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the configuration file")
	port := flag.Int("port", 0, "Override the configured server port")
	dbPath := flag.String("db", "", "Override the configured SQLite database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		logger.Error(ctx, "failed to open store", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var artifacts artifact.Store
	if cfg.Minio.Endpoint != "" {
		minioStore, err := artifact.NewMinIO(ctx, artifact.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			logger.Error(ctx, "failed to connect artifact store", "endpoint", cfg.Minio.Endpoint, "error", err)
			os.Exit(1)
		}
		artifacts = minioStore
	} else {
		logger.Warn(ctx, "no artifact store configured, uploads are held in memory only")
		artifacts = artifact.NewMemory()
	}

	business := pdf.BusinessIdentity{
		Name:         cfg.Business.Name,
		AddressLines: cfg.Business.AddressLines,
	}
	issuer := issuance.New(store, artifacts, business)
	issuer.TaxRate = cfg.TaxRate()
	if cfg.Invoice.TimeoutSeconds > 0 {
		issuer.Timeout = time.Duration(cfg.Invoice.TimeoutSeconds) * time.Second
	}

	handler := api.NewHandler(store, artifacts, issuer)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler),
	}

	go func() {
		logger.Info(ctx, "server starting", "port", cfg.Server.Port, "db", cfg.Store.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "forced shutdown", "error", err)
	}
	logger.Info(ctx, "server stopped")
}
