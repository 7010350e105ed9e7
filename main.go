package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"footballshop/internal/app"
	"footballshop/internal/config"
	"footballshop/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	shop, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize app", zap.Error(err))
	}
	defer func() {
		if err := shop.Close(); err != nil {
			log.Error("failed to close resources", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := shop.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return
	}
	log.Info("server gracefully stopped")
}
