// Package logger configures the zap logger shared by all commands. The
// level scale follows the conventional 0-5 mapping (0=Fatal, 1=Error,
// 2=Warn, 3=Info, 4+5=Debug) and log files are rotated with lumberjack.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Type selects the sink: stderr, stdout or logfile.
	Type string `mapstructure:"type"`
	// File is the log file path when Type is logfile.
	File            string `mapstructure:"file"`
	Level           int8   `mapstructure:"level"`
	MaxSize         int    `mapstructure:"max-size"`
	NumRotatedFiles int    `mapstructure:"num-rotated-files"`
	// Developer enables debug logging with stack traces, ignoring all other
	// settings.
	Developer bool `mapstructure:"developer"`
}

type Logger struct {
	*zap.Logger
}

func New(cfg Config) (*Logger, error) {
	if cfg.Developer {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return &Logger{l}, nil
	}

	var sink zapcore.WriteSyncer
	switch cfg.Type {
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	case "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "logfile":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.NumRotatedFiles,
		})
	default:
		return nil, fmt.Errorf("unknown log type %q (expected stderr, stdout or logfile)", cfg.Type)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), sink, levelFor(cfg.Level))
	return &Logger{zap.New(core)}, nil
}

func levelFor(level int8) zapcore.Level {
	switch {
	case level <= 0:
		return zapcore.FatalLevel
	case level == 1:
		return zapcore.ErrorLevel
	case level == 2:
		return zapcore.WarnLevel
	case level == 3:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
