package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARNING:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLogLevel maps a config value to a LogLevel, INFO when unknown.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Logger writes JSON lines to a log file and, optionally, a human readable
// copy to a console writer. Children made with WithField share the file.
type Logger struct {
	zlog zerolog.Logger
	sink *fileSink
}

// NewLogger opens (appends to) filename. An empty filename logs to console
// only; a nil console logs to the file only.
func NewLogger(filename string, level LogLevel, console io.Writer) (*Logger, error) {
	var writers []io.Writer
	var sink *fileSink
	if filename != "" {
		sink = &fileSink{}
		if err := sink.open(filename); err != nil {
			return nil, err
		}
		writers = append(writers, sink)
	}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05"})
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 1:
		out = writers[0]
	case 2:
		out = zerolog.MultiLevelWriter(writers...)
	}

	zlog := zerolog.New(out).Level(level.zerolog()).With().Timestamp().Logger()
	return &Logger{zlog: zlog, sink: sink}, nil
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Log writes message at level. FATAL is recorded but never exits; the
// caller decides how to stop.
func (l *Logger) Log(level LogLevel, message string) {
	l.zlog.WithLevel(level.zerolog()).Msg(message)
}

func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) }
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// WithField returns a child logger carrying key=value on every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger(), sink: l.sink}
}

// WithFields is WithField for several keys at once.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Fields(fields).Logger(), sink: l.sink}
}

// WithError returns a child logger carrying err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger(), sink: l.sink}
}

// Close closes the log file. Children share the file, so close the root
// logger only.
func (l *Logger) Close() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.close()
}

// CheckRotate renames the log file aside with a timestamp suffix and starts a
// new one when the file is larger than maxSize, an expression such as
// "10 * 1024 * 1024". It reports whether a rotation happened.
func (l *Logger) CheckRotate(maxSize string) (bool, error) {
	if l.sink == nil || maxSize == "" {
		return false, nil
	}
	limit, err := parseSize(maxSize)
	if err != nil {
		return false, err
	}
	return l.sink.rotateIfLarger(limit)
}

// parseSize evaluates a product of integers: "10 * 1024 * 1024".
func parseSize(expr string) (int64, error) {
	var result int64 = 1
	for _, part := range strings.Split(expr, "*") {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || num <= 0 {
			return 0, fmt.Errorf("invalid log size %q", expr)
		}
		result *= num
	}
	return result, nil
}

type fileSink struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func (s *fileSink) open(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	s.path = path
	s.file = file
	return nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return len(p), nil
	}
	return s.file.Write(p)
}

func (s *fileSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileSink) rotateIfLarger(limit int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return false, nil
	}

	info, err := s.file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() <= limit {
		return false, nil
	}

	if err := s.file.Close(); err != nil {
		return false, err
	}
	s.file = nil

	ext := filepath.Ext(s.path)
	rotated := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(s.path, ext), time.Now().Format("20060102150405"), ext)
	if err := os.Rename(s.path, rotated); err != nil {
		return false, err
	}
	if err := s.open(s.path); err != nil {
		return false, err
	}
	return true, nil
}
