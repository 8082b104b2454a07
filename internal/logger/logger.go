package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Types int

const (
	Info Types = iota
	Error
	Warn
	Fatal
)

type manager struct {
	dev     bool
	view    io.Writer
	file    *os.File
	sink    zerolog.Logger
	console zerolog.Logger
	mu      sync.Mutex
}

type Logger struct {
	tag string
}

var (
	logManager *manager
	once       sync.Once
)

// InitLogger configures the process-wide sinks. view receives dev output
// (the TUI debug console); when nil, dev output goes to stderr. logPath is a
// directory for a JSON log file; empty disables file logging.
func InitLogger(dev bool, logPath string, view io.Writer) error {
	var initErr error
	once.Do(func() {
		m := &manager{
			dev:     dev,
			view:    view,
			sink:    zerolog.Nop(),
			console: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger(),
		}
		if logPath != "" {
			timestamp := time.Now().Format("20060102_150405")
			fileName := fmt.Sprintf("scribe_log_%s.log", timestamp)

			file, err := os.OpenFile(filepath.Join(logPath, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				initErr = fmt.Errorf("failed to open log file: %w", err)
				return
			}
			m.file = file
			m.sink = zerolog.New(file).With().Timestamp().Logger()
		}
		logManager = m
	})
	return initErr
}

// NewLogger returns a logger that tags every line. It is safe to call before
// InitLogger; output is dropped until the sinks are configured.
func NewLogger(tag string) *Logger {
	return &Logger{tag: tag}
}

func (l *Logger) log(logTypes Types, v ...interface{}) {
	m := logManager
	if m == nil {
		return
	}
	message := fmt.Sprint(v...)

	if m.dev {
		if m.view != nil {
			var format string
			switch logTypes {
			case Info:
				format = "[green]DEBUG (%s): %s[-]\n"
			case Warn:
				format = "[yellow]DEBUG (%s): %s[-]\n"
			default:
				format = "[red]DEBUG (%s): %s[-]\n"
			}
			m.mu.Lock()
			fmt.Fprintf(m.view, format, l.tag, message)
			m.mu.Unlock()
		} else {
			event(m.console, logTypes).Str("tag", l.tag).Msg(message)
		}
	}

	event(m.sink, logTypes).Str("tag", l.tag).Msg(message)
}

func event(zl zerolog.Logger, t Types) *zerolog.Event {
	switch t {
	case Error, Fatal:
		return zl.Error()
	case Warn:
		return zl.Warn()
	default:
		return zl.Info()
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.log(Info, v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.log(Error, v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.log(Warn, v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.log(Fatal, v...)
	fmt.Fprintln(os.Stderr, v...)
	os.Exit(1)
}

// Close flushes and closes the log file, if any.
func Close() {
	if logManager != nil && logManager.file != nil {
		logManager.file.Close()
	}
}
