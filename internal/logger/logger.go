package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reviewfeed/internal/config"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New создает логгер приложения на основе конфигурации.
// Все записи дописываются в файл лога, записи уровня ERROR дополнительно
// выводятся в errorOut (обычно os.Stderr). Относительный путь файла
// считается от каталога baseDir. Возвращает открытый файл, который нужно закрыть.
func New(cfg config.LoggerConfig, baseDir string, errorOut io.Writer) (*slog.Logger, io.Closer, error) {
	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	logWriter, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	handler := NewLevelDispatcherHandler(logWriter, errorOut, Options(ParseLevel(cfg.Level)))
	return slog.New(handler), logWriter, nil
}

// Options возвращает настройки обработчика: источник записи и уровень.
func Options(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}
}

// ParseLevel преобразует строковое представление уровня логирования в slog.Level.
// Поддерживает уровни: debug, info, warn, error.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelDispatcherHandler реализует slog.Handler с маршрутизацией сообщений по уровням.
// Все сообщения направляются в defaultHandler, сообщения уровня ERROR и выше
// дополнительно дублируются в errorHandler.
type LevelDispatcherHandler struct {
	defaultHandler slog.Handler
	errorHandler   slog.Handler
}

// NewLevelDispatcherHandler создает новый обработчик логов с маршрутизацией по уровням.
// Ошибки в errorOut выводятся в кратком консольном формате tint, с цветом только
// для терминала. Если errorOut равен nil, ошибки пишутся только в defaultOut.
func NewLevelDispatcherHandler(defaultOut, errorOut io.Writer, opts *slog.HandlerOptions) *LevelDispatcherHandler {
	h := &LevelDispatcherHandler{
		defaultHandler: NewReadableHandler(defaultOut, opts),
	}
	if errorOut != nil {
		h.errorHandler = tint.NewHandler(errorOut, &tint.Options{
			Level:      slog.LevelError,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(errorOut),
		})
	}
	return h
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (h *LevelDispatcherHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.defaultHandler.Enabled(ctx, level)
}

// Handle записывает сообщение в основной обработчик и, для ERROR и выше, в обработчик ошибок.
func (h *LevelDispatcherHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.defaultHandler.Handle(ctx, r); err != nil {
		return err
	}
	if h.errorHandler != nil && r.Level >= slog.LevelError {
		return h.errorHandler.Handle(ctx, r.Clone())
	}
	return nil
}

func (h *LevelDispatcherHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &LevelDispatcherHandler{defaultHandler: h.defaultHandler.WithAttrs(attrs)}
	if h.errorHandler != nil {
		next.errorHandler = h.errorHandler.WithAttrs(attrs)
	}
	return next
}

func (h *LevelDispatcherHandler) WithGroup(name string) slog.Handler {
	next := &LevelDispatcherHandler{defaultHandler: h.defaultHandler.WithGroup(name)}
	if h.errorHandler != nil {
		next.errorHandler = h.errorHandler.WithGroup(name)
	}
	return next
}

// ReadableHandler реализует slog.Handler с удобочитаемым форматированием логов.
// Форматирует сообщения в человекочитаемом виде с временными метками,
// уровнями логирования, компонентами и структурированными атрибутами.
type ReadableHandler struct {
	w      io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	prefix string
}

// NewReadableHandler создает новый обработчик с читаемым форматированием.
// Если opts равен nil, используются настройки по умолчанию.
func NewReadableHandler(w io.Writer, opts *slog.HandlerOptions) *ReadableHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ReadableHandler{w: w, opts: opts}
}

func (h *ReadableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle форматирует и записывает запись лога в удобочитаемом формате.
// Включает время, уровень, компонент, операцию, источник и атрибуты.
func (h *ReadableHandler) Handle(ctx context.Context, r slog.Record) error {
	timeStr := r.Time.Format("2006-01-02 15:04:05.000")
	levelStr := h.formatLevel(r.Level)
	var component, operation, source string
	var attrs []slog.Attr
	collect := func(a slog.Attr, prefixed bool) {
		switch a.Key {
		case "component":
			component = a.Value.String()
		case "op":
			operation = a.Value.String()
		default:
			if !prefixed && h.prefix != "" {
				a.Key = h.prefix + a.Key
			}
			attrs = append(attrs, a)
		}
	}
	for _, a := range h.attrs {
		collect(a, true)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a, false)
		return true
	})
	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			source = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
	}
	var prefix strings.Builder
	prefix.WriteString(fmt.Sprintf("[%s] %s", timeStr, levelStr))
	if component != "" {
		prefix.WriteString(fmt.Sprintf(" [%s]", component))
	}
	if operation != "" {
		prefix.WriteString(fmt.Sprintf(" (%s)", operation))
	}
	if source != "" {
		prefix.WriteString(fmt.Sprintf(" <%s>", source))
	}
	message := r.Message
	var attrParts []string
	for _, attr := range attrs {
		attrParts = append(attrParts, h.formatAttr(attr))
	}
	if len(attrParts) > 0 {
		message += " | " + strings.Join(attrParts, ", ")
	}
	_, err := fmt.Fprintf(h.w, "%s: %s\n", prefix.String(), message)
	return err
}

// formatLevel преобразует уровень логирования в строковое представление.
func (h *ReadableHandler) formatLevel(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "UNKNW"
	}
}

// formatAttr форматирует атрибут лога в зависимости от его ключа.
// Специальное форматирование для ошибок, URL и длительностей.
func (h *ReadableHandler) formatAttr(attr slog.Attr) string {
	switch attr.Key {
	case "error":
		return fmt.Sprintf("error=%q", attr.Value.String())
	case "url":
		return fmt.Sprintf("url=%s", h.shortenURL(attr.Value.String()))
	case "duration":
		if attr.Value.Kind() == slog.KindDuration {
			return fmt.Sprintf("duration=%s", attr.Value.Duration().Round(time.Millisecond))
		}
		return fmt.Sprintf("duration=%s", attr.Value.String())
	default:
		return fmt.Sprintf("%s=%s", attr.Key, attr.Value.String())
	}
}

// shortenURL сокращает длинные URL, оставляя схему, домен и путь без query.
func (h *ReadableHandler) shortenURL(url string) string {
	if len(url) > 80 {
		if i := strings.IndexByte(url, '?'); i > 0 {
			return url[:i] + "?..."
		}
	}
	return url
}

// WithAttrs возвращает обработчик, который добавляет attrs к каждой записи.
func (h *ReadableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" && a.Key != "component" && a.Key != "op" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup возвращает обработчик, добавляющий имя группы к ключам последующих атрибутов.
func (h *ReadableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
