package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type Types int

const (
	Info Types = iota
	Error
	Warn
	Fatal
)

// Logger is a tagged handle on the shared log sink. Handles created before
// InitLogger pick up the configured sink once it exists.
type Logger struct {
	tag    string
	fields logrus.Fields
}

var (
	base    atomic.Pointer[logrus.Logger]
	logFile *os.File
	once    sync.Once
)

func init() {
	l := logrus.New()
	l.SetOutput(io.Discard)
	base.Store(l)
}

// InitLogger configures the shared sink. In dev mode every message is also
// shown in view when one is given (the TUI debug console), or on stderr when it
// is nil. With a logPath, messages go to a timestamped file in that directory.
func InitLogger(dev bool, logPath string, view io.Writer) {
	once.Do(func() {
		l := logrus.New()
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
		l.SetLevel(logrus.InfoLevel)
		if dev {
			l.SetLevel(logrus.DebugLevel)
		}

		var outputs []io.Writer
		if logPath != "" {
			timestamp := time.Now().Format("20060102_150405")
			fileName := fmt.Sprintf("gramfix_log_%s.log", timestamp)
			file, err := os.OpenFile(filepath.Join(logPath, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file: %s\n", err)
				os.Exit(1)
			}
			logFile = file
			outputs = append(outputs, file)
		}

		if dev {
			if view != nil {
				l.AddHook(&consoleHook{view: view})
			} else {
				outputs = append(outputs, os.Stderr)
			}
		}

		switch len(outputs) {
		case 0:
			l.SetOutput(io.Discard)
		case 1:
			l.SetOutput(outputs[0])
		default:
			l.SetOutput(io.MultiWriter(outputs...))
		}
		base.Store(l)
	})
}

func NewLogger(tag string) *Logger {
	return &Logger{tag: tag}
}

// WithField returns a logger that attaches key=value to every message.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{tag: l.tag, fields: fields}
}

func (l *Logger) entry() *logrus.Entry {
	return base.Load().WithFields(l.fields).WithField("tag", l.tag)
}

func (l *Logger) log(logType Types, v ...interface{}) {
	message := fmt.Sprint(v...)
	entry := l.entry()
	switch logType {
	case Info:
		entry.Info(message)
	case Warn:
		entry.Warn(message)
	case Error:
		entry.Error(message)
	case Fatal:
		// logrus' Fatal exits before the caller can close the file
		entry.Log(logrus.FatalLevel, message)
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.log(Info, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.log(Info, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(v ...interface{}) {
	l.log(Error, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.log(Error, fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(v ...interface{}) {
	l.log(Warn, v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.log(Fatal, v...)
	l.Close()
	os.Exit(1)
}

func (l *Logger) Close() {
	if logFile != nil {
		logFile.Close()
	}
}

// consoleHook mirrors entries into the TUI debug console using tview colour tags.
type consoleHook struct {
	mu   sync.Mutex
	view io.Writer
}

func (h *consoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleHook) Fire(entry *logrus.Entry) error {
	tag, _ := entry.Data["tag"].(string)
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.view, consoleFormat(entry.Level), tag, entry.Message)
	return err
}

func consoleFormat(level logrus.Level) string {
	switch level {
	case logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel:
		return "[green]DEBUG (%s): %s[-]\n"
	case logrus.WarnLevel:
		return "[yellow]DEBUG (%s): %s[-]\n"
	default:
		return "[red]DEBUG (%s): %s[-]\n"
	}
}

func (t Types) String() string {
	switch t {
	case Info:
		return "INFO"
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
