package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OutputType represents the output destination type
type OutputType string

const (
	OutputStdout OutputType = "stdout"
	OutputFile   OutputType = "file"
	OutputBoth   OutputType = "both"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
	defaultMaxAgeDays = 30
)

// CoreLogger wraps slog with printf-style helpers and field helpers.
type CoreLogger struct {
	*slog.Logger
	config config.LoggerConfig
}

// NewCoreLogger creates a new core logger instance based on configuration
func NewCoreLogger(cfg config.LoggerConfig) (*CoreLogger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}

	writer, err := newWriter(cfg)
	if err != nil {
		return nil, err
	}

	return NewCoreLoggerWithWriter(writer, level, cfg), nil
}

// NewCoreLoggerWithWriter builds a JSON logger on an arbitrary writer.
func NewCoreLoggerWithWriter(w io.Writer, level slog.Level, cfg config.LoggerConfig) *CoreLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &CoreLogger{
		Logger: slog.New(handler),
		config: cfg,
	}
}

func newWriter(cfg config.LoggerConfig) (io.Writer, error) {
	outputType := parseOutputType(cfg.Output)
	if outputType == OutputStdout {
		return os.Stdout, nil
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("file path is required when output is set to '%s'", outputType)
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
		Compress:   cfg.Compress,
	}

	if outputType == OutputBoth {
		return io.MultiWriter(os.Stdout, rotating), nil
	}
	return rotating, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// loggerAttributes tracks which attributes have been added to which loggers.
// Written from request goroutines, hence the mutex.
var (
	loggerAttributes   = make(map[*slog.Logger]map[string]bool)
	loggerAttributesMu sync.RWMutex
)

func checkLoggerAttribute(logger *slog.Logger, key string) bool {
	loggerAttributesMu.RLock()
	defer loggerAttributesMu.RUnlock()
	if attrs, exists := loggerAttributes[logger]; exists {
		return attrs[key]
	}
	return false
}

func markLoggerAttribute(logger *slog.Logger, key string) {
	loggerAttributesMu.Lock()
	defer loggerAttributesMu.Unlock()
	if loggerAttributes[logger] == nil {
		loggerAttributes[logger] = make(map[string]bool)
	}
	loggerAttributes[logger][key] = true
}

func (l *CoreLogger) withAttribute(key, value string) *CoreLogger {
	if value == "" || checkLoggerAttribute(l.Logger, key) {
		return l
	}

	newLogger := l.Logger.With(key, value)
	markLoggerAttribute(newLogger, key)

	return &CoreLogger{
		Logger: newLogger,
		config: l.config,
	}
}

// WithTraceID creates a new logger instance with the specified trace ID
func (l *CoreLogger) WithTraceID(traceID string) *CoreLogger {
	return l.withAttribute("trace_id", traceID)
}

// WithUserID creates a new logger instance with the specified user ID
func (l *CoreLogger) WithUserID(userID string) *CoreLogger {
	return l.withAttribute("user_id", userID)
}

// WithScannerID tags log lines with the community scanner they concern.
func (l *CoreLogger) WithScannerID(scannerID string) *CoreLogger {
	return l.withAttribute("scanner_id", scannerID)
}

// WithContext creates a new logger instance with both trace ID and user ID
func (l *CoreLogger) WithContext(traceID, userID string) *CoreLogger {
	return l.WithTraceID(traceID).WithUserID(userID)
}

// WithFields creates a new logger instance with additional fields
func (l *CoreLogger) WithFields(fields map[string]interface{}) *CoreLogger {
	logger := l.Logger
	for key, value := range fields {
		logger = logger.With(key, value)
	}

	return &CoreLogger{
		Logger: logger,
		config: l.config,
	}
}

func (l *CoreLogger) Debug(msg string, args ...interface{}) {
	l.Logger.Debug(fmt.Sprintf(msg, args...))
}

func (l *CoreLogger) Info(msg string, args ...interface{}) {
	l.Logger.Info(fmt.Sprintf(msg, args...))
}

func (l *CoreLogger) Warn(msg string, args ...interface{}) {
	l.Logger.Warn(fmt.Sprintf(msg, args...))
}

func (l *CoreLogger) Error(msg string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf(msg, args...))
}

func (l *CoreLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Debug(msg)
}

func (l *CoreLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Info(msg)
}

func (l *CoreLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Warn(msg)
}

func (l *CoreLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Error(msg)
}

// Fatal logs a fatal error and exits
func (l *CoreLogger) Fatal(msg string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf("FATAL: "+msg, args...))
	os.Exit(1)
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", level)
	}
}

func parseOutputType(output string) OutputType {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "file":
		return OutputFile
	case "both":
		return OutputBoth
	default:
		return OutputStdout
	}
}
