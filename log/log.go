// Package log is the audit execution log. Lines are written to stderr in the
// same 'timestamp LEVEL message' layout the uhppoted command line tools use and
// are optionally appended to a log file.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = build(zapcore.InfoLevel, zapcore.Lock(os.Stderr))
var level = zapcore.InfoLevel
var guard sync.Mutex

var closers []io.Closer

// Init replaces the default logger. If file is not empty, log lines are also
// appended to it (the directory is created if necessary).
func Init(debug bool, file string) error {
	lvl := zapcore.InfoLevel
	if debug {
		lvl = zapcore.DebugLevel
	}

	writers := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	var f *os.File

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0770); err != nil {
			return fmt.Errorf("unable to create log directory (%w)", err)
		}

		if w, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660); err != nil {
			return fmt.Errorf("unable to open log file %v (%w)", file, err)
		} else {
			f = w
			writers = append(writers, zapcore.Lock(w))
		}
	}

	guard.Lock()
	defer guard.Unlock()

	logger = build(lvl, zapcore.NewMultiWriteSyncer(writers...))
	level = lvl

	if f != nil {
		closers = append(closers, f)
	}

	return nil
}

// SetOutput redirects the log to w. Intended for tests.
func SetOutput(w io.Writer, debug bool) {
	lvl := zapcore.InfoLevel
	if debug {
		lvl = zapcore.DebugLevel
	}

	guard.Lock()
	defer guard.Unlock()

	logger = build(lvl, zapcore.AddSync(w))
	level = lvl
}

// Close flushes the log and closes the log file, if any. Subsequent lines are
// written to stderr only.
func Close() {
	guard.Lock()
	defer guard.Unlock()

	logger.Sync()

	if len(closers) > 0 {
		for _, c := range closers {
			c.Close()
		}

		closers = nil
		logger = build(level, zapcore.Lock(os.Stderr))
	}
}

func Debugf(format string, args ...any) {
	get().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	get().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	get().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	get().Errorf(format, args...)
}

func get() *zap.SugaredLogger {
	guard.Lock()
	defer guard.Unlock()

	return logger
}

func build(level zapcore.Level, w zapcore.WriteSyncer) *zap.SugaredLogger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "message",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})

	return zap.New(zapcore.NewCore(encoder, w, level)).Sugar()
}

// ERROR is padded to 5 characters like the rest so messages line up.
func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%-5s", level.CapitalString()))
}
