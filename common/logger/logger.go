package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure the service logger.
type Options struct {
	Level   string // debug, info, warn or error; anything else means info
	Format  string // json or console
	Service string // attached as service_name when set
	Output  string // stdout, stderr or a file path; empty means stdout
}

// New builds the service logger from opts. JSON output carries
// ISO8601 timestamps and the caller; console output is the zap
// development encoder without stack traces below error.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level > zapcore.ErrorLevel {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{outputPath(opts.Output)}
	cfg.ErrorOutputPaths = []string{"stderr"}

	fields := []zap.Field{}
	if opts.Service != "" {
		fields = append(fields, zap.String("service_name", opts.Service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		fields = append(fields, zap.String("hostname", hostname))
	}

	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(fields...))
}

func outputPath(output string) string {
	if output == "" {
		return "stdout"
	}
	return output
}
