package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hrms/internal/app/server"
	"hrms/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, config.Load())
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
