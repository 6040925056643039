package rss

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"reviewfeed/internal/domain"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultTitle       = "1000PS Testberichte"
	DefaultLink        = "https://www.1000ps.de/motorrad-testberichte"
	DefaultDescription = "Die neuesten Testberichte von 1000PS"
	DefaultFileName    = "1000ps.rss"
)

// ChannelMeta содержит метаданные канала RSS.
type ChannelMeta struct {
	Title       string
	Link        string
	Description string
}

// Option настраивает Builder.
type Option func(*Builder)

// WithClock подменяет источник текущего времени для lastBuildDate.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithLocation задает часовой пояс lastBuildDate.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// Builder формирует полный документ RSS 2.0 из списка тестов.
type Builder struct {
	meta     ChannelMeta
	fileName string
	now      func() time.Time
	loc      *time.Location
}

// NewBuilder создает Builder. Пустые поля meta и fileName заменяются значениями по умолчанию.
func NewBuilder(meta ChannelMeta, fileName string, opts ...Option) *Builder {
	b := &Builder{
		meta: ChannelMeta{
			Title:       lo.Ternary(meta.Title != "", meta.Title, DefaultTitle),
			Link:        lo.Ternary(meta.Link != "", meta.Link, DefaultLink),
			Description: lo.Ternary(meta.Description != "", meta.Description, DefaultDescription),
		},
		fileName: lo.Ternary(fileName != "", fileName, DefaultFileName),
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FileName возвращает имя файла, в который сохраняется лента.
func (b *Builder) FileName() string {
	return b.fileName
}

// Build возвращает XML-декларацию и документ RSS с отступами.
// Элементы идут в порядке reviews, без дедупликации и ограничения количества.
func (b *Builder) Build(reviews []domain.Review) ([]byte, error) {
	doc := domain.RSS{
		Version: "2.0",
		Channel: domain.Channel{
			Title:         b.meta.Title,
			Link:          b.meta.Link,
			Description:   b.meta.Description,
			LastBuildDate: b.now().In(b.loc).Format(domain.PubDateLayout),
			Items: lo.Map(reviews, func(r domain.Review, _ int) domain.Item {
				return r.Item()
			}),
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode rss: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode rss: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
