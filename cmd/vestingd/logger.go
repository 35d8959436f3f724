package main

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// newLogger builds a zap logger and bridges it into slog, which the vault
// and its plugins log through.
func newLogger(jsonOutput bool) (*slog.Logger, func(), error) {
	var (
		zl  *zap.Logger
		err error
	)
	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zl, err = config.Build()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(zapslog.NewHandler(zl.Core(), zapslog.WithName("vestingd")))
	return logger, func() { _ = zl.Sync() }, nil
}
