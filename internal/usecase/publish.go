package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"reviewfeed/storage"
	"time"
)

// Publisher сохраняет ленту локально и, если задан uploader, выгружает ее.
type Publisher struct {
	storage  storage.Storage
	uploader FeedUploader
	log      *slog.Logger
}

// NewPublisher создает Publisher. uploader может быть nil, тогда выгрузка не выполняется.
func NewPublisher(store storage.Storage, uploader FeedUploader, log *slog.Logger) *Publisher {
	return &Publisher{
		storage:  store,
		uploader: uploader,
		log:      log,
	}
}

// Publish записывает data под именем name, затем выгружает файл.
// Ошибка любого шага возвращается с указанием этапа.
func (p *Publisher) Publish(ctx context.Context, name string, data []byte) error {
	log := p.log.With(slog.String("component", "publisher"), slog.String("file", name))

	start := time.Now()
	path, err := p.storage.Save(ctx, name, data)
	if err != nil {
		log.Error("Feed save failed",
			slog.String("stage", "save"),
			slog.Any("error", err),
		)
		return fmt.Errorf("save failed: %w", err)
	}
	log.Info("Feed saved",
		slog.String("stage", "save"),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
	)

	if p.uploader == nil {
		log.Info("Upload disabled", slog.String("stage", "upload"))
		return nil
	}
	start = time.Now()
	if err := p.uploader.Upload(ctx, path); err != nil {
		log.Error("Feed upload failed",
			slog.String("stage", "upload"),
			slog.Any("error", err),
		)
		return fmt.Errorf("upload failed: %w", err)
	}
	log.Info("Feed upload finished",
		slog.String("stage", "upload"),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
