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

	"github.com/rpattn/metaemit/internal/config"
	"github.com/rpattn/metaemit/internal/emitter"
	"github.com/rpattn/metaemit/internal/httpapi"
	"github.com/rpattn/metaemit/internal/ingestion"
	"github.com/rpattn/metaemit/internal/logger"
	"github.com/rpattn/metaemit/internal/middleware"
	"github.com/rpattn/metaemit/internal/transport"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	client := transport.NewClient(cfg.Client, log)
	e := emitter.New(cfg.Emitter, client, client, log)

	// Check the catalog is reachable but keep serving either way; ingestion
	// requests report their own failures.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := client.TestConnection(pingCtx); err != nil {
		log.Warn("catalog not reachable at startup", zap.String("server", client.Server()), zap.Error(err))
	}
	pingCancel()

	mux := http.NewServeMux()
	httpapi.NewHandler(e, log).Register(mux)
	mux.Handle("POST /manifest", ingestion.NewHTTPHandler(ingestion.NewService(e, log)))

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(log)(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.Client.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("gms_server", client.Server()),
			zap.String("env", e.Config().Env),
			zap.String("config", cfg.Source),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
