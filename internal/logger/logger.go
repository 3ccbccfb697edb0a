package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "modcurator"

// presets maps each deployment environment to its base zap config.
var presets = map[string]func() zap.Config{
	"prod":   production,
	"local":  development,
	"dev":    development,
	"docker": development,
	"test":   development,
}

func production() zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func development() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// NewLogger builds the process logger. prod writes JSON lines; every other
// known env writes colored console output. A non-empty levelOverride
// (debug|info|warn|error) replaces the preset level.
func NewLogger(env string, levelOverride ...string) (*zap.Logger, error) {
	preset, ok := presets[env]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}
	cfg := preset()

	if len(levelOverride) > 0 {
		if lvl, set, err := parseLevel(levelOverride[0]); err != nil {
			return nil, err
		} else if set {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	l, err := cfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName), zap.String("env", env)),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// parseLevel reports set=false for an empty override.
func parseLevel(s string) (lvl zapcore.Level, set bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return lvl, false, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, false, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, true, nil
}
