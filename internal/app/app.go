package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reviewfeed/internal/adapter/fetcher"
	"reviewfeed/internal/adapter/parser"
	"reviewfeed/internal/adapter/rss"
	"reviewfeed/internal/adapter/uploader"
	"reviewfeed/internal/config"
	"reviewfeed/internal/logger"
	"reviewfeed/internal/usecase"
	"reviewfeed/storage"
	"time"
)

// App представляет генератор ленты тестов 1000PS.
// Связывает логгер, загрузчик страницы, парсер, сборщик RSS, хранилище и FTP-выгрузку.
type App struct {
	config    *config.Config
	logger    *slog.Logger
	logFile   io.Closer
	processor *usecase.FeedProcessingUseCase
	loc       *time.Location
	now       func() time.Time
	upload    bool
}

type options struct {
	baseDir    string
	errorOut   io.Writer
	skipUpload bool
	dial       uploader.DialFunc
	now        func() time.Time
}

// Option изменяет параметры запуска приложения.
type Option func(*options)

// WithBaseDir задает каталог для файла ленты и лога вместо каталога программы.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithErrorOutput задает поток, куда дублируются ошибки.
func WithErrorOutput(w io.Writer) Option {
	return func(o *options) { o.errorOut = w }
}

// WithoutUpload отключает FTP-выгрузку независимо от конфигурации.
func WithoutUpload() Option {
	return func(o *options) { o.skipUpload = true }
}

// WithDialer подменяет подключение к FTP.
func WithDialer(dial uploader.DialFunc) Option {
	return func(o *options) { o.dial = dial }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New создает и инициализирует приложение.
// Открывает файл лога и собирает все компоненты; возвращает ошибку,
// если каталог программы, часовой пояс или лог недоступны.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{
		errorOut: os.Stderr,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.baseDir == "" {
		dir, err := executableDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve program dir: %w", err)
		}
		o.baseDir = dir
	}
	loc, err := time.LoadLocation(cfg.Feed.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Feed.Timezone, err)
	}

	appLogger, logFile, err := logger.New(cfg.Logger, o.baseDir, o.errorOut)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	htmlParser, err := parser.NewHTMLParser(appLogger, cfg.Source.BaseURL)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("bad init app: %w", err)
	}
	httpFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.Source.Timeout, cfg.Source.UserAgent)

	builder := rss.NewBuilder(rss.ChannelMeta{
		Title:       cfg.Feed.Title,
		Link:        cfg.Feed.Link,
		Description: cfg.Feed.Description,
	}, cfg.Feed.FileName, rss.WithClock(o.now), rss.WithLocation(loc))

	outputDir := cfg.Feed.OutputDir
	if outputDir == "" {
		outputDir = o.baseDir
	}
	fileStorage := storage.NewFileStorage(outputDir, appLogger)

	var feedUploader usecase.FeedUploader
	if !o.skipUpload {
		feedUploader = uploader.NewFTPUploader(cfg.FTP, o.dial, appLogger)
	}
	publisher := usecase.NewPublisher(fileStorage, feedUploader, appLogger)

	processor := usecase.NewFeedProcessingUseCase(
		httpFetcher, htmlParser, builder, publisher, cfg.Source.ListingURL, appLogger,
	)
	return &App{
		config:    cfg,
		logger:    appLogger,
		logFile:   logFile,
		processor: processor,
		loc:       loc,
		now:       o.now,
		upload:    feedUploader != nil && cfg.FTP.Enabled(),
	}, nil
}

// Run выполняет один проход генерации ленты за текущий месяц.
// Отмена ctx (например, по SIGINT) прерывает текущий этап.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	a.logger.Info("Starting review feed generation",
		slog.String("component", "app"),
		slog.String("source", a.config.Source.ListingURL),
		slog.Bool("upload", a.upload),
	)
	if err := a.processor.ProcessFeed(ctx, a.now().In(a.loc)); err != nil {
		a.logger.Error("Feed generation failed",
			slog.String("component", "app"),
			slog.Any("error", err),
		)
		return err
	}
	a.logger.Info("Feed generation finished",
		slog.String("component", "app"),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Close освобождает файл лога.
func (a *App) Close() error {
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
