package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"reviewfeed/internal/adapter/fetcher"
	"time"
)

// FeedProcessingUseCase реализует один проход генерации ленты.
// Координирует загрузку страницы, извлечение тестов, сборку и публикацию RSS.
type FeedProcessingUseCase struct {
	fetcher    PageFetcher
	parser     ReviewParser
	builder    FeedBuilder
	publisher  FeedPublisher
	listingURL string
	log        *slog.Logger
}

// NewFeedProcessingUseCase создает новый экземпляр UseCase.
// listingURL - адрес страницы списка без параметра месяца.
func NewFeedProcessingUseCase(
	fetcher PageFetcher,
	parser ReviewParser,
	builder FeedBuilder,
	publisher FeedPublisher,
	listingURL string,
	log *slog.Logger,
) *FeedProcessingUseCase {
	return &FeedProcessingUseCase{
		fetcher:    fetcher,
		parser:     parser,
		builder:    builder,
		publisher:  publisher,
		listingURL: listingURL,
		log:        log,
	}
}

// ProcessFeed выполняет полный цикл: страница за месяц now загружается, разбирается,
// лента собирается и публикуется. Измеряет время выполнения и логирует каждый этап.
// Если извлечь тесты не удалось, ничего не записывается.
func (uc *FeedProcessingUseCase) ProcessFeed(ctx context.Context, now time.Time) error {
	start := time.Now()
	log := uc.log.With(slog.String("component", "feed-processor"))

	url, err := fetcher.ListingURL(uc.listingURL, now)
	if err != nil {
		log.Error("Listing URL invalid", slog.String("stage", "fetch"), slog.Any("error", err))
		return fmt.Errorf("fetch failed: %w", err)
	}
	log = log.With(slog.String("url", url))
	log.Info("Processing feed started")

	reader, err := uc.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Error("Page fetch failed",
			slog.String("stage", "fetch"),
			slog.Any("error", err),
		)
		return fmt.Errorf("fetch failed: %w", err)
	}
	defer reader.Close()

	log.Debug("Page fetched successfully", slog.String("stage", "fetch"))

	reviews, err := uc.parser.ParseAt(ctx, reader, now)
	if err != nil {
		log.Error("Page parsing failed",
			slog.String("stage", "parse"),
			slog.Any("error", err),
		)
		return fmt.Errorf("parse failed: %w", err)
	}

	log.Info("Page parsed successfully",
		slog.String("stage", "parse"),
		slog.Int("items_parsed", len(reviews)),
	)

	data, err := uc.builder.Build(reviews)
	if err != nil {
		log.Error("Feed build failed",
			slog.String("stage", "build"),
			slog.Any("error", err),
		)
		return fmt.Errorf("build failed: %w", err)
	}
	log.Debug("Feed built",
		slog.String("stage", "build"),
		slog.Int("bytes", len(data)),
	)

	if err := uc.publisher.Publish(ctx, uc.builder.FileName(), data); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	log.Info("Feed processing completed successfully",
		slog.Int("items_published", len(reviews)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
