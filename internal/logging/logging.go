// Package logging builds the zap logger of the command line tools.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing to stderr. format is json for a production encoder or console
// for a human readable one.
func New(level, format string) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, errors.Wrap(err, "failed to parse log level")
	}

	var config zap.Config

	switch format {
	case "json":
		config = zap.NewProductionConfig()
	case "console", "":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Development = false
	default:
		return nil, zap.AtomicLevel{}, errors.Errorf("unknown log format %q", format)
	}

	config.Level = lvl
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, errors.Wrap(err, "failed to initialize logger")
	}

	return logger, lvl, nil
}
