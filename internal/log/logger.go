package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides centralized logging for the plugin and the harness
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

var (
	globalLogger *Logger
	level        = new(slog.LevelVar)
)

// init creates the global logger with console output by default
func init() {
	level.Set(slog.LevelDebug)
	globalLogger = &Logger{
		logger: slog.New(newHandler(os.Stdout)),
		file:   os.Stdout,
	}
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   slog.TimeKey,
					Value: slog.StringValue(a.Value.Time().Format("2006/01/02 15:04:05.000000")),
				}
			}
			return a
		},
	})
}

// SetFileOutput configures the logger to append to the specified file
func SetFileOutput(filename string) error {
	logger, err := NewLogger(filename)
	if err != nil {
		return err
	}

	Close()
	globalLogger = logger
	return nil
}

// SetOutput routes log records to w. The writer is not closed by Close.
func SetOutput(w io.Writer) {
	Close()
	globalLogger = &Logger{logger: slog.New(newHandler(w))}
}

// SetLevel changes the minimum level ("debug", "info", "warn", "error")
func SetLevel(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q", name)
	}
	return nil
}

// NewLogger creates a logger that writes to the specified file
func NewLogger(filename string) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	return &Logger{
		logger: slog.New(newHandler(file)),
		file:   file,
	}, nil
}

func Debug(msg string, args ...any) {
	if globalLogger != nil {
		globalLogger.logger.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if globalLogger != nil {
		globalLogger.logger.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if globalLogger != nil {
		globalLogger.logger.Warn(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if globalLogger != nil {
		globalLogger.logger.Error(msg, args...)
	}
}

// Close closes the log file if one is open and falls back to stdout
func Close() {
	if globalLogger != nil && globalLogger.file != nil && globalLogger.file != os.Stdout {
		globalLogger.file.Close()
		globalLogger = &Logger{
			logger: slog.New(newHandler(os.Stdout)),
			file:   os.Stdout,
		}
	}
}
