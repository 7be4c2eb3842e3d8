// Package main is the entry point for the interactive workplane picker.
// On success it prints the picked workplane name to stdout.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/sketchplane/internal/app"
	"github.com/Faultbox/sketchplane/internal/config"
	"github.com/Faultbox/sketchplane/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("config: %+v", cfg)

	code := run(cfg)
	logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config) int {
	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to start picker", zap.Error(err))
		return 1
	}
	defer a.Close()

	workplane, err := a.Run()
	switch {
	case errors.Is(err, app.ErrCancelled):
		logger.Info("no workplane picked")
		return 2
	case err != nil:
		logger.Error("picker error", zap.Error(err))
		return 1
	}

	fmt.Println(workplane)
	return 0
}
