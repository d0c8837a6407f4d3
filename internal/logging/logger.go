// Package logging предоставляет общий логгер сервера поверх zerolog:
// консольный вывод с цветами и файл без цветов, уровни и компонентные логгеры.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options настройки логгера
type Options struct {
	Level   string // trace, debug, info, warn, error
	Dir     string // каталог файлов логов, пустой - без файла
	JSON    bool   // JSON вместо консольного формата
	NoColor bool
}

// ParseLevel переводит строку в уровень zerolog, по умолчанию info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger логгер компонента
type Logger struct {
	zl zerolog.Logger
}

// New создаёт логгер, пишущий в w
func New(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Zerolog возвращает нижележащий zerolog.Logger для структурных полей
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// With возвращает дочерний логгер с дополнительным полем
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// Component возвращает дочерний логгер для компонента
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.zl.Trace().Msgf(format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, zerolog.InfoLevel)
	defaultFile   *os.File
)

// InitDefaultLogger настраивает глобальный логгер компонента.
// При заданном Dir создаётся файл logs/<component>_<время>.log.
func InitDefaultLogger(component string, opts Options) error {
	level := ParseLevel(opts.Level)

	writers := []io.Writer{consoleWriter(os.Stdout, opts.JSON, opts.NoColor)}

	var file *os.File
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return fmt.Errorf("ошибка создания директории логов: %w", err)
		}
		name := fmt.Sprintf("%s_%s.log", component, time.Now().Format("2006-01-02_15-04-05"))
		f, err := os.OpenFile(filepath.Join(opts.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		file = f
		writers = append(writers, consoleWriter(f, opts.JSON, true))
	}

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	logger := New(zerolog.MultiLevelWriter(writers...), level).Component(component)

	defaultMu.Lock()
	old := defaultFile
	defaultLogger, defaultFile = logger, file
	defaultMu.Unlock()
	GetLoggerManager().Reset()

	if old != nil {
		old.Close()
	}
	return nil
}

// SetDefault подменяет глобальный логгер (тесты, встраивание)
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	GetLoggerManager().Reset()
}

// Default возвращает глобальный логгер
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// CloseDefaultLogger закрывает файл логов
func CloseDefaultLogger() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFile != nil {
		defaultFile.Close()
		defaultFile = nil
	}
}

func consoleWriter(out io.Writer, json, noColor bool) io.Writer {
	if json {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
}

func Trace(format string, args ...interface{}) { Default().Trace(format, args...) }
func Debug(format string, args ...interface{}) { Default().Debug(format, args...) }
func Info(format string, args ...interface{})  { Default().Info(format, args...) }
func Warn(format string, args ...interface{})  { Default().Warn(format, args...) }
func Error(format string, args ...interface{}) { Default().Error(format, args...) }
