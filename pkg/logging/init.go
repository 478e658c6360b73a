package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 5
	logFileMaxAgeDays = 30
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Initialize installs the default slog logger. When logFile is set, log
// lines are also written to that file, rotated by size. The returned closer
// releases the file.
func Initialize(loggingType string, logLevelName string, logFile string) (io.Closer, error) {
	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(logLevelName))
	if err != nil {
		return nil, fmt.Errorf("could not parse log level: %v", err)
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}

	logHandler, err := newHandler(loggingType, out, logLevel, logFile != "")
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(logHandler))
	slog.Info("logging initialized", "logLevel", logLevel)
	return closer, nil
}

func newHandler(loggingType string, out io.Writer, level slog.Level, noColor bool) (slog.Handler, error) {
	logHandlerOptions := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}

	switch loggingType {
	case JSON:
		return slog.NewJSONHandler(out, &logHandlerOptions), nil
	case Text:
		return slog.NewTextHandler(out, &logHandlerOptions), nil
	case Tint:
		return tint.NewHandler(out, &tint.Options{
			AddSource: logHandlerOptions.AddSource,
			Level:     logHandlerOptions.Level,
			NoColor:   noColor,
		}), nil
	default:
		return nil, fmt.Errorf("unknown logging type: %s", loggingType)
	}
}

// WithInvocationID tags every subsequent log line of the default logger with
// a fresh invocation id and returns it.
func WithInvocationID() string {
	id := uuid.New().String()
	slog.SetDefault(slog.Default().With("invocation", id))
	return id
}
