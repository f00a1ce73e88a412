package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init configures the process logger with the given level and format.
// If w is omitted, os.Stderr is used. Format must be "console" or "json".
func Init(level, format string, w ...io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if level == "" {
		lvl, err = zapcore.InfoLevel, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "", "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}

	logger := zap.New(zapcore.NewCore(encoder, zapcore.AddSync(writer), lvl))

	mu.Lock()
	root = logger
	mu.Unlock()
	return logger, nil
}

// New returns a logger carrying a "component" field. Before Init it
// discards everything.
func New(component string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With(zap.String("component", component))
}
