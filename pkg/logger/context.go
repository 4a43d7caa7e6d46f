package logger

import (
	"context"
	"log/slog"
	"sync"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	appContext "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/jwt"
)

// ContextLogger provides context-aware logging functionality
type ContextLogger struct {
	*CoreLogger
}

// NewContextLogger creates a new context-aware logger
func NewContextLogger(cfg config.LoggerConfig) (*ContextLogger, error) {
	coreLogger, err := NewCoreLogger(cfg)
	if err != nil {
		return nil, err
	}

	return &ContextLogger{
		CoreLogger: coreLogger,
	}, nil
}

// FromContext returns a logger enriched with the trace and operator ids carried by ctx.
func (cl *ContextLogger) FromContext(ctx context.Context) *CoreLogger {
	var baseLogger *slog.Logger
	if ctxLogger := appContext.GetLogger(ctx); ctxLogger != nil {
		baseLogger = ctxLogger
	} else {
		baseLogger = cl.CoreLogger.Logger
	}

	logger := &CoreLogger{
		Logger: baseLogger,
		config: cl.config,
	}

	return logger.WithTraceID(appContext.GetTraceID(ctx)).WithUserID(extractUserIDFromContext(ctx))
}

// SetInContext sets the logger in the context
func (cl *ContextLogger) SetInContext(ctx context.Context, logger *CoreLogger) context.Context {
	appContext.SetLogger(ctx, logger.Logger)
	return ctx
}

func extractUserIDFromContext(ctx context.Context) string {
	if claims, ok := ctx.Value(jwt.UserClaimKey).(*jwt.UserClaims); ok {
		return claims.UserID
	}
	return appContext.GetUserID(ctx)
}

var (
	globalContextLogger *ContextLogger
	globalMu            sync.Mutex
)

// InitGlobalLogger initializes the global context logger
func InitGlobalLogger(cfg config.LoggerConfig) error {
	logger, err := NewContextLogger(cfg)
	if err != nil {
		return err
	}
	globalMu.Lock()
	globalContextLogger = logger
	globalMu.Unlock()
	return nil
}

// GetGlobalLogger returns the global context logger, falling back to info on stdout.
func GetGlobalLogger() *ContextLogger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalContextLogger == nil {
		logger, err := NewContextLogger(config.LoggerConfig{Level: "info", Output: "stdout"})
		if err != nil {
			panic("Failed to create default logger: " + err.Error())
		}
		globalContextLogger = logger
	}
	return globalContextLogger
}

// FromContext is a convenience function to get logger from context using global instance
func FromContext(ctx context.Context) *CoreLogger {
	return GetGlobalLogger().FromContext(ctx)
}

// SetInContext is a convenience function to set logger in context using global instance
func SetInContext(ctx context.Context, logger *CoreLogger) context.Context {
	return GetGlobalLogger().SetInContext(ctx, logger)
}

// The *Context helpers take slog key/value pairs, unlike the printf-style CoreLogger methods.

func DebugContext(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Logger.Debug(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Logger.Info(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Logger.Warn(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Logger.Error(msg, args...)
}

func InfoContextWithFields(ctx context.Context, msg string, fields map[string]interface{}) {
	FromContext(ctx).InfoWithFields(msg, fields)
}

func WarnContextWithFields(ctx context.Context, msg string, fields map[string]interface{}) {
	FromContext(ctx).WarnWithFields(msg, fields)
}

func ErrorContextWithFields(ctx context.Context, msg string, fields map[string]interface{}) {
	FromContext(ctx).ErrorWithFields(msg, fields)
}
