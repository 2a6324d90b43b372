package logging

import (
	"fmt"
	"io"
	"os"

	golog "github.com/fclairamb/go-log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var stderr io.Writer = os.Stderr

var _ golog.Logger = (*AppLogger)(nil)

// AppLogger implements the go-log.Logger interface on top of zap
type AppLogger struct {
	level  LogLevel
	sugar  *zap.SugaredLogger
	closer io.Closer // log file, nil when logging to a stream we don't own
}

// NewAppLogger creates a new application logger writing to w
func NewAppLogger(w io.Writer, level LogLevel, format string) (*AppLogger, error) {
	zl, err := zapcore.ParseLevel(string(level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole, "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(zl))
	return &AppLogger{
		level: level,
		sugar: zap.New(core).Sugar(),
	}, nil
}

// Debug implements go-log.Logger
func (l *AppLogger) Debug(event string, keyvals ...interface{}) {
	l.sugar.Debugw(event, keyvals...)
}

// Info implements go-log.Logger
func (l *AppLogger) Info(event string, keyvals ...interface{}) {
	l.sugar.Infow(event, keyvals...)
}

// Warn implements go-log.Logger
func (l *AppLogger) Warn(event string, keyvals ...interface{}) {
	l.sugar.Warnw(event, keyvals...)
}

// Error implements go-log.Logger
func (l *AppLogger) Error(event string, keyvals ...interface{}) {
	l.sugar.Errorw(event, keyvals...)
}

// Panic implements go-log.Logger. It logs at DPanic level and, like the
// other levels, returns to the caller.
func (l *AppLogger) Panic(event string, keyvals ...interface{}) {
	l.sugar.DPanicw(event, keyvals...)
}

// With implements go-log.Logger
func (l *AppLogger) With(keyvals ...interface{}) golog.Logger {
	return &AppLogger{
		level: l.level,
		sugar: l.sugar.With(keyvals...),
	}
}

// IsDebug returns true if the logger is at debug level
func (l *AppLogger) IsDebug() bool {
	return l.level == LogLevelDebug
}

// Close flushes the logger and closes its log file
func (l *AppLogger) Close() error {
	_ = l.sugar.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
