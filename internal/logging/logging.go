// Package logging builds the process logger. Output always goes to stderr
// because stdout carries MCP frames in stdio mode.
package logging

import (
	"fmt"

	"github.com/HendryAvila/mindgraph/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap logger for cfg. Format "console" gives the development
// encoder, anything else JSON.
func New(cfg config.Log) (*zap.Logger, error) {
	logger, _, err := NewWithLevel(cfg)
	return logger, err
}

// NewWithLevel is New plus the level handle, which can be changed while the
// logger is in use.
func NewWithLevel(cfg config.Log) (*zap.Logger, zap.AtomicLevel, error) {
	atom, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, atom, err
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = atom
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, atom, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger.Named("mindgraph"), atom, nil
}

// ParseLevel returns an atomic level set to the named level.
func ParseLevel(name string) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zap.NewAtomicLevel(), fmt.Errorf("logging: %w", err)
	}
	return zap.NewAtomicLevelAt(level), nil
}
