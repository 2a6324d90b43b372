package logging

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	// LogLevelDebug is for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is for error messages
	LogLevelError LogLevel = "error"
	// LogLevelPanic is for panic messages
	LogLevelPanic LogLevel = "panic"
)

// Output encodings for the application log
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultMaxSize is the log file size that triggers a rotation
const DefaultMaxSize = 10 * 1024 * 1024

// Config holds logging configuration
type Config struct {
	Level        LogLevel
	Format       string // FormatConsole or FormatJSON
	AppLogPath   string // empty logs to stderr
	AuditLogPath string // empty discards audit entries
	MaxSize      int64  // rotation threshold for log files, 0 for DefaultMaxSize
}

var (
	// App is the global application logger
	App *AppLogger
	// Audit is the global record of store operations
	Audit AuditLogger
)

func init() {
	// Default loggers discard everything until Initialize is called
	var err error
	App, err = NewAppLogger(io.Discard, LogLevelInfo, FormatConsole)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default app logger: %v", err))
	}
	Audit = NewAuditLogger(io.Discard)
}

// Initialize sets up the global loggers
func Initialize(fs afero.Fs, config Config) error {
	if config.Level == "" {
		config.Level = LogLevelInfo
	}
	if config.Format == "" {
		config.Format = FormatConsole
	}
	if config.MaxSize == 0 {
		config.MaxSize = DefaultMaxSize
	}

	var appWriter io.Writer = stderr
	var appFile *RotatingWriter
	if config.AppLogPath != "" {
		rw, err := NewRotatingWriter(fs, config.AppLogPath, config.MaxSize)
		if err != nil {
			return fmt.Errorf("failed to initialize app logger: %w", err)
		}
		appWriter, appFile = rw, rw
	}
	newApp, err := NewAppLogger(appWriter, config.Level, config.Format)
	if err != nil {
		if appFile != nil {
			appFile.Close()
		}
		return fmt.Errorf("failed to initialize app logger: %w", err)
	}
	if appFile != nil {
		newApp.closer = appFile
	}

	var newAudit AuditLogger = NewAuditLogger(io.Discard)
	if config.AuditLogPath != "" {
		rw, err := NewRotatingWriter(fs, config.AuditLogPath, config.MaxSize)
		if err != nil {
			newApp.Close()
			return fmt.Errorf("failed to initialize audit logger: %w", err)
		}
		audit := NewAuditLogger(rw)
		audit.closer = rw
		newAudit = audit
	}

	// Update global loggers
	App = newApp
	Audit = newAudit
	return nil
}

// Close flushes and closes the global loggers
func Close() error {
	var errs []error
	if App != nil {
		errs = append(errs, App.Close())
	}
	if c, ok := Audit.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
