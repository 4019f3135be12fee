// Package log provides the library-wide structured logger. Everything in
// goldmod logs through here so a host embedding the bridge can point the
// whole library at one file with a single call.
package log

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Logger wraps the slog handler currently in effect.
type Logger struct {
	logger *slog.Logger
	file   *os.File
	level  *slog.LevelVar
}

var globalLogger *Logger

// init creates the global logger with console output by default. Inside a
// dedicated server the console is usually not a TTY; drop to Info there so
// the server log is not flooded with per-message debug lines.
func init() {
	level := new(slog.LevelVar)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	globalLogger = &Logger{
		logger: slog.New(handler),
		file:   os.Stdout,
		level:  level,
	}
}

// SetLevel adjusts the minimum severity of the active logger.
func SetLevel(level slog.Level) {
	if globalLogger != nil {
		globalLogger.level.Set(level)
	}
}

// SetFileOutput configures the logger to append to the specified file.
func SetFileOutput(filename string) error {
	logger, err := NewLogger(filename)
	if err != nil {
		return err
	}

	// Close existing file if it's not stdout
	if globalLogger != nil && globalLogger.file != os.Stdout {
		globalLogger.file.Close()
	}
	if globalLogger != nil {
		logger.level.Set(globalLogger.level.Level())
	}

	globalLogger = logger
	return nil
}

// NewLogger creates a logger that writes to the specified file.
func NewLogger(filename string) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{
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

	return &Logger{
		logger: slog.New(handler),
		file:   file,
		level:  level,
	}, nil
}

// Standard logging methods
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

// Close closes the logger file.
func Close() {
	if globalLogger != nil && globalLogger.file != os.Stdout {
		globalLogger.file.Close()
	}
}
