// Command chartago-devserver runs the in-memory chartagoPM API for local
// development and manual testing of the client.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"go.uber.org/zap"

	"github.com/eshaffer321/chartagopm-go/internal/config"
	"github.com/eshaffer321/chartagopm-go/internal/devserver"
	"github.com/eshaffer321/chartagopm-go/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running server: %s\n", err)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if cfg.LogDev {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.LogLevel

	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		logger.Warn("JWT_SECRET or REFRESH_SECRET not set, using random secrets; tokens will not survive a restart")
	}

	displayAppname("chartagoPM")

	srv, err := devserver.New(cfg, logger.Logger, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Addr()); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
