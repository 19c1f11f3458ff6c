package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogOptions contains configuration settings for the logger.
type LogOptions struct {
	// Level is the minimum log level to output: debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format is either console or json.
	Format string `mapstructure:"format"`
	// EnableColor colorizes levels in console format.
	EnableColor bool `mapstructure:"enable-color"`
	// OutputPaths lists the sinks, "stdout" and "stderr" included.
	OutputPaths []string `mapstructure:"output-paths"`
}

// NewLogOptions returns the defaults: info level console output on stdout.
func NewLogOptions() *LogOptions {
	return &LogOptions{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stdout"},
	}
}

// AddFlags binds command-line flags to the options.
func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "The minimum log level to output (debug, info, warn, error).")
	fs.StringVar(&o.Format, "log.format", o.Format, "The log output format ('console' or 'json').")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Enable colorized levels for the console format.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "A list of log output paths (e.g. 'stdout', '/var/log/gatekeeper.log').")
}

// Validate checks the options.
func (o *LogOptions) Validate() []error {
	var errs []error
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(o.Level)); err != nil {
		errs = append(errs, fmt.Errorf("--log.level: %w", err))
	}
	if o.Format != "console" && o.Format != "json" {
		errs = append(errs, fmt.Errorf("--log.format must be 'console' or 'json', got %q", o.Format))
	}
	return errs
}

// newLogger builds the zap logger.  eventFile, when set, is appended to the
// output paths; zap opens files in append mode, which makes it the
// timestamped event log kept across restarts.
func newLogger(opts *LogOptions, eventFile string) (*zap.Logger, error) {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if opts.Format == "console" && opts.EnableColor {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	outputs := append([]string(nil), opts.OutputPaths...)
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	if eventFile != "" {
		outputs = append(outputs, eventFile)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         opts.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("gatekeeper"), nil
}

