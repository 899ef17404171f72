package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Interface -.
type Interface interface {
	Debug(message interface{}, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message interface{}, args ...interface{})
	Fatal(message interface{}, args ...interface{})
}

// Logger -.
type Logger struct {
	logger *zerolog.Logger
}

var _ Interface = (*Logger)(nil)

// New -.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter -.
func NewWithWriter(level string, w io.Writer) *Logger {
	var l zerolog.Level

	switch strings.ToLower(level) {
	case "error":
		l = zerolog.ErrorLevel
	case "warn":
		l = zerolog.WarnLevel
	case "info":
		l = zerolog.InfoLevel
	case "debug":
		l = zerolog.DebugLevel
	default:
		l = zerolog.InfoLevel
	}

	skipFrameCount := 3
	logger := zerolog.New(w).
		Level(l).
		With().
		Timestamp().
		CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + skipFrameCount).
		Logger()

	return &Logger{
		logger: &logger,
	}
}

// Debug -.
func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.msg("debug", message, args...)
}

// Info -.
func (l *Logger) Info(message string, args ...interface{}) {
	l.log(l.logger.Info(), message, args...)
}

// Warn -.
func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(l.logger.Warn(), message, args...)
}

// Error -.
func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.msg("error", message, args...)
}

// Fatal -.
func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.msg("fatal", message, args...)

	os.Exit(1)
}

func (l *Logger) log(ev *zerolog.Event, message string, args ...interface{}) {
	if len(args) == 0 {
		ev.Msg(message)
	} else {
		ev.Msgf(message, args...)
	}
}

func (l *Logger) msg(level string, message interface{}, args ...interface{}) {
	switch msg := message.(type) {
	case error:
		l.emit(level, msg.Error(), true, args...)
	case string:
		l.emit(level, msg, false, args...)
	default:
		l.emit(level, fmt.Sprintf("%s message %v has unknown type %v", level, message, msg), false, args...)
	}
}

func (l *Logger) emit(level, message string, isErr bool, args ...interface{}) {
	var ev *zerolog.Event

	switch level {
	case "debug":
		ev = l.logger.Debug()
	case "fatal":
		ev = l.logger.WithLevel(zerolog.FatalLevel)
	default:
		ev = l.logger.Error()
	}

	if len(args) == 0 {
		ev.Msg(message)
		return
	}

	// Error(err, "where") calls carry the call site as the first arg.
	if where, ok := args[0].(string); ok && isErr {
		if len(args) > 1 {
			where = fmt.Sprintf(where, args[1:]...)
		}
		ev.Str("context", where).Msg(message)
		return
	}

	ev.Msgf(message, args...)
}
