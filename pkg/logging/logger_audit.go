package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLogger records operations on player files
type AuditLogger interface {
	// LogOp logs one store operation on the record at location
	LogOp(operation string, location string, status string, details ...interface{})
}

// JSONAuditLogger implements AuditLogger with one JSON line per operation
type JSONAuditLogger struct {
	logger *zap.Logger
	closer io.Closer
}

// NewAuditLogger creates an audit logger writing one JSON line per
// operation to w
func NewAuditLogger(w io.Writer) *JSONAuditLogger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		MessageKey:     "op",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)
	return &JSONAuditLogger{logger: zap.New(core)}
}

// LogOp implements AuditLogger
func (l *JSONAuditLogger) LogOp(operation string, location string, status string, details ...interface{}) {
	fields := []zap.Field{zap.String("status", status)}
	if location != "" {
		fields = append(fields, zap.String("location", location))
	}
	for i := 0; i+1 < len(details); i += 2 {
		key, ok := details[i].(string)
		if !ok {
			continue
		}
		if err, isErr := details[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, details[i+1]))
	}
	l.logger.Info(operation, fields...)
}

// Close flushes the logger and closes its log file
func (l *JSONAuditLogger) Close() error {
	_ = l.logger.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
