// Package logging builds the application logger from config.
package logging

import (
	"go.uber.org/zap"

	"github.com/seenimoa/insiderwatch/internal/config"
)

// New creates a zap logger per the logging config. Format "json" yields the
// production encoder; anything else yields console output for humans.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	return zapConfig.Build()
}
