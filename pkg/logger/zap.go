package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type CallerDisplayMode int

const (
	// CallerShort shows only filename:line (session.go:116)
	CallerShort CallerDisplayMode = iota
	// CallerMedium shows package/filename:line (browser/session.go:116)
	CallerMedium
	// CallerFull shows full path
	CallerFull
)

var (
	// Logger is a no-op until InitLogger runs so packages can log from tests.
	Logger            = zap.NewNop()
	Sugar             = Logger.Sugar()
	atomicLevel       = zap.NewAtomicLevelAt(zap.InfoLevel)
	callerDisplayMode = CallerShort
)

// InitLogger initializes the global logger
func InitLogger(isDevelopment bool, logPath string, logLevel ...string) error {
	level := zap.InfoLevel
	if len(logLevel) > 0 && logLevel[0] != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(logLevel[0]))); err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel[0], err)
		}
	}
	atomicLevel.SetLevel(level)

	var (
		l   *zap.Logger
		err error
	)
	if isDevelopment {
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = fixedWidthLevel
		config.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
		config.EncoderConfig.CallerKey = "caller"
		config.EncoderConfig.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(formatCallerPath(caller))
		}
		config.Level = atomicLevel
		l, err = config.Build(
			zap.AddCallerSkip(1), // Skip wrapper function to show actual caller
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	} else {
		l, err = NewProductionLogger(logPath, level)
	}
	if err != nil {
		return err
	}

	Logger = l
	Sugar = l.Sugar()
	zap.ReplaceGlobals(l)
	return nil
}

// NewProductionLogger creates a JSON file logger with rotation, tee'd to stdout.
func NewProductionLogger(logPath string, level zapcore.Level) (*zap.Logger, error) {
	if logPath == "" {
		logPath = "./logs/outagewatch.log"
	}
	if err := createLogDir(logPath); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = fixedWidthLevel
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = "caller"
	encoderConfig.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(formatCallerPath(caller))
	}

	atomicLevel.SetLevel(level)
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, atomicLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), atomicLevel),
	)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

func fixedWidthLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%-5s", level.CapitalString()))
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}

// Info logs a message at InfoLevel
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

// Error logs a message at ErrorLevel
func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Fatal logs a message at FatalLevel
func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Logger.Sync()
}

// SetLevel dynamically changes the log level
func SetLevel(level zapcore.Level) {
	atomicLevel.SetLevel(level)
}

// GetLevel returns the current log level
func GetLevel() zapcore.Level {
	return atomicLevel.Level()
}

func createLogDir(logPath string) error {
	dir := filepath.Dir(logPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SetCallerDisplayMode sets the caller path display mode
func SetCallerDisplayMode(mode CallerDisplayMode) {
	callerDisplayMode = mode
}

// ParseCallerDisplayMode maps short, medium and full to a mode. Empty means
// short.
func ParseCallerDisplayMode(s string) (CallerDisplayMode, error) {
	switch strings.ToLower(s) {
	case "", "short":
		return CallerShort, nil
	case "medium":
		return CallerMedium, nil
	case "full":
		return CallerFull, nil
	}
	return CallerShort, fmt.Errorf("unknown caller display mode %q", s)
}

func formatCallerPath(caller zapcore.EntryCaller) string {
	fullPath := caller.TrimmedPath()
	result := fullPath

	switch callerDisplayMode {
	case CallerShort:
		parts := strings.Split(fullPath, "/")
		result = parts[len(parts)-1]
	case CallerMedium:
		shortened := strings.TrimPrefix(fullPath, "pkg/")
		shortened = strings.TrimPrefix(shortened, "cmd/")
		shortened = strings.TrimPrefix(shortened, "internal/")
		if parts := strings.Split(shortened, "/"); len(parts) > 2 {
			result = strings.Join(parts[len(parts)-2:], "/")
		} else {
			result = shortened
		}
	}

	const callerWidth = 24
	if len(result) > callerWidth {
		result = "..." + result[len(result)-(callerWidth-3):]
	}
	return fmt.Sprintf("%-*s", callerWidth, result)
}
