package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carservice/cmd"

	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configs, err := cmd.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: configs.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Error initializing application: %v", err)
	}

	if err := run(ctx, stop, app, configs, logger); err != nil {
		logger.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, app *cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) error {
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", "error", err)
		}
	}()

	listenCtx, cancelListen := context.WithCancel(context.Background())
	defer cancelListen()
	go func() {
		if err := app.Notifier().Run(listenCtx); err != nil {
			logger.Error("Update listener failed", "error", err)
			stop()
		}
	}()

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	e, err := app.CreateRouter()
	if err != nil {
		return err
	}

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)
		logger.Info("Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	// Ends open event streams so that the server can drain.
	app.Hub().Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
