// main is the entry point of the Patients API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured storage backend
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/patients-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/patients-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/patients-api/internal/config"
	"github.com/aanand-mishra/patients-api/internal/http/router"
	"github.com/aanand-mishra/patients-api/internal/metrics"
	"github.com/aanand-mishra/patients-api/internal/service"
	"github.com/aanand-mishra/patients-api/internal/storage/backend"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting patients-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	ctx := context.Background()

	// The handlers only ever see the storage.Storage interface; which
	// backend sits behind it is decided here by configuration.
	store, closer, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(service.New(store), metrics.New(), log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		closer.Close()
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
