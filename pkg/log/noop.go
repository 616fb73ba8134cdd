package log

// NoopLogger discards all log messages. It is the default logger for
// embedded use.
type NoopLogger struct{}

// NewNoopLogger creates a logger that discards everything.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (*NoopLogger) Debug(msg string, fields ...Field) {}
func (*NoopLogger) Info(msg string, fields ...Field)  {}
func (*NoopLogger) Warn(msg string, fields ...Field)  {}
func (*NoopLogger) Error(msg string, fields ...Field) {}
