package usecase

import (
	"context"
	"io"
	"reviewfeed/internal/domain"
	"time"
)

// PageFetcher определяет интерфейс загрузки HTML-страницы списка.
// Возвращает io.ReadCloser, который должен быть закрыт после использования.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// ReviewParser извлекает тесты из HTML-страницы в порядке их появления.
// ref задает год для дат без года.
type ReviewParser interface {
	ParseAt(ctx context.Context, reader io.Reader, ref time.Time) ([]domain.Review, error)
}

// FeedBuilder формирует документ ленты и знает имя его файла.
type FeedBuilder interface {
	Build(reviews []domain.Review) ([]byte, error)
	FileName() string
}

// FeedUploader выгружает сохраненный файл во внешнее хранилище.
type FeedUploader interface {
	Upload(ctx context.Context, localPath string) error
}

// FeedPublisher публикует готовый документ.
type FeedPublisher interface {
	Publish(ctx context.Context, name string, data []byte) error
}
