package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	cycleIDKey   contextKey = "cycle_id"
	componentKey contextKey = "component"
	loggerKey    contextKey = "logger"
)

// WithCycleID tags a context with the id of the poll cycle it belongs to.
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, cycleIDKey, cycleID)
}

// WithComponent tags a context with the component doing the work.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithLogger stores an explicit logger in the context.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context logger, or the global logger with the
// component field attached. A cycle id is added either way.
func FromContext(ctx context.Context) *zap.Logger {
	var fields []zap.Field
	if id, ok := ctx.Value(cycleIDKey).(string); ok && id != "" {
		fields = append(fields, zap.String("cycle_id", id))
	}

	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok || l == nil {
		if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
			fields = append(fields, zap.String("component", component))
		}
		// Logger skips one frame for the package helpers; direct callers need it back.
		l = Logger.WithOptions(zap.AddCallerSkip(-1))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// SetLogLevel dynamically changes the log level from its text form.
func SetLogLevel(level string) error {
	var lvl = atomicLevel.Level()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	SetLevel(lvl)
	return nil
}

// GetLogLevel returns the current log level as text.
func GetLogLevel() string {
	return atomicLevel.Level().String()
}
