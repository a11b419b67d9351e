// Copyright (c) 2025 ariusbronte

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	TraceLevel LogLevel = iota + 1
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	NoLevel
)

func (l LogLevel) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case NoLevel:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string (trace, debug, info, warn, error, disable)
// to a LogLevel. Unknown strings fall back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "disable", "none", "off":
		return NoLevel
	default:
		return InfoLevel
	}
}

var (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

type LogFormatter interface {
	Format(entry *LogEntry) string
}

type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   LogLevel       `json:"level"`
	Message string         `json:"message"`
	Prefix  string         `json:"prefix,omitempty"`
	File    string         `json:"file,omitempty"`
	Line    int            `json:"line,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	Error   error          `json:"error,omitempty"`
}

// Logger is a small leveled logger. Derived loggers (WithPrefix, WithField,
// WithError) share the parent's output and write lock.
type Logger struct {
	mu         sync.RWMutex
	out        *lockedWriter
	level      LogLevel
	prefix     string
	formatter  LogFormatter
	fields     map[string]any
	showCaller bool
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(s string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = io.WriteString(lw.w, s)
}

type LoggerConfig struct {
	Level      LogLevel
	Prefix     string
	Output     io.Writer
	Formatter  LogFormatter
	Color      bool
	ShowCaller bool
}

func NewLogger(prefix string) *Logger {
	return NewLoggerWithConfig(&LoggerConfig{Prefix: prefix, Output: os.Stdout, Color: true})
}

func NewLoggerWithConfig(config *LoggerConfig) *Logger {
	if config == nil {
		config = &LoggerConfig{}
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Level == 0 {
		config.Level = InfoLevel
	}
	if config.Formatter == nil {
		config.Formatter = &TextFormatter{NoColor: !config.Color || !isTerminal(config.Output)}
	}
	return &Logger{
		out:        &lockedWriter{w: config.Output},
		level:      config.Level,
		prefix:     config.Prefix,
		formatter:  config.Formatter,
		fields:     make(map[string]any),
		showCaller: config.ShowCaller,
	}
}

func (l *Logger) clone() *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c := &Logger{
		out:        l.out,
		level:      l.level,
		prefix:     l.prefix,
		formatter:  l.formatter,
		fields:     make(map[string]any, len(l.fields)),
		showCaller: l.showCaller,
	}
	maps.Copy(c.fields, l.fields)
	return c
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	c := l.clone()
	c.prefix = prefix
	return c
}

func (l *Logger) WithField(key string, value any) *Logger {
	c := l.clone()
	c.fields[key] = value
	return c
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	c := l.clone()
	maps.Copy(c.fields, fields)
	return c
}

func (l *Logger) WithError(err error) *Logger {
	c := l.clone()
	c.fields["error"] = err
	return c
}

func (l *Logger) SetLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level == 0 {
		level = InfoLevel
	}
	l.level = level
	return l
}

func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = &lockedWriter{w: w}
	if tf, ok := l.formatter.(*TextFormatter); ok && !isTerminal(w) {
		tf.NoColor = true
	}
	return l
}

func (l *Logger) SetFormatter(f LogFormatter) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formatter = f
	return l
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}
	entry := &LogEntry{
		Time:   time.Now(),
		Level:  level,
		Prefix: l.prefix,
		Fields: make(map[string]any, len(l.fields)),
	}
	maps.Copy(entry.Fields, l.fields)
	formatter, out, showCaller := l.formatter, l.out, l.showCaller
	l.mu.RUnlock()

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	entry.Message = msg

	if err, ok := entry.Fields["error"].(error); ok {
		entry.Error = err
		delete(entry.Fields, "error")
	}

	if showCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.File = filepath.Base(file)
			entry.Line = line
		}
	}

	out.write(formatter.Format(entry))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (f == os.Stdout || f == os.Stderr)
}

func (l *Logger) Trace(msg string, args ...any) { l.log(TraceLevel, msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.log(DebugLevel, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(InfoLevel, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(WarnLevel, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(ErrorLevel, msg, args...) }

// TextFormatter formats logs as human-readable text
type TextFormatter struct {
	NoColor         bool
	TimestampFormat string
}

func (f *TextFormatter) Format(entry *LogEntry) string {
	var b strings.Builder

	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = "15:04:05.000"
	}
	f.paint(&b, colorDim, entry.Time.Format(tsFormat))
	b.WriteByte(' ')

	level := entry.Level.String()
	if len(level) < 5 {
		level += strings.Repeat(" ", 5-len(level))
	}
	f.paint(&b, f.levelColor(entry.Level)+colorBold, level)
	b.WriteByte(' ')

	if entry.Prefix != "" {
		f.paint(&b, colorBlue, entry.Prefix)
		b.WriteByte(' ')
	}
	if entry.File != "" && entry.Line > 0 {
		f.paint(&b, colorDim, fmt.Sprintf("%s:%d", entry.File, entry.Line))
		b.WriteByte(' ')
	}

	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			f.paint(&b, colorCyan, fmt.Sprintf("%v", entry.Fields[k]))
		}
		b.WriteByte(']')
	}

	if entry.Error != nil {
		b.WriteByte(' ')
		f.paint(&b, colorRed, "error="+entry.Error.Error())
	}

	b.WriteByte('\n')
	return b.String()
}

func (f *TextFormatter) paint(b *strings.Builder, color, s string) {
	if f.NoColor || color == "" {
		b.WriteString(s)
		return
	}
	b.WriteString(color)
	b.WriteString(s)
	b.WriteString(colorReset)
}

func (f *TextFormatter) levelColor(level LogLevel) string {
	switch level {
	case TraceLevel:
		return colorPurple
	case DebugLevel:
		return colorBlue
	case InfoLevel:
		return colorGreen
	case WarnLevel:
		return colorYellow
	case ErrorLevel:
		return colorRed
	default:
		return ""
	}
}

// JSONFormatter formats logs as JSON
type JSONFormatter struct {
	TimestampFormat string
}

func (f *JSONFormatter) Format(entry *LogEntry) string {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = time.RFC3339Nano
	}

	data := make(map[string]any, len(entry.Fields)+5)
	maps.Copy(data, entry.Fields)
	data["timestamp"] = entry.Time.Format(tsFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if entry.Prefix != "" {
		data["prefix"] = entry.Prefix
	}
	if entry.File != "" {
		data["caller"] = fmt.Sprintf("%s:%d", entry.File, entry.Line)
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}

	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal log entry: %v"}`+"\n", err)
	}
	return string(out) + "\n"
}
