package storage

import "context"

// Storage определяет интерфейс для сохранения готовой ленты.
// Каждый вызов Save полностью заменяет ранее сохраненный документ с тем же именем.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}
