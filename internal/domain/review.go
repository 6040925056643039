package domain

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PubDateLayout - формат даты RFC 822 с четырехзначным годом и числовым смещением.
const PubDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

var (
	ErrEmptyTitle = errors.New("review title is empty")
	ErrEmptyLink  = errors.New("review link is empty")
)

// Review представляет один тест мотоцикла, извлеченный со страницы списка.
// Значение неизменяемо: поля доступны только через методы.
type Review struct {
	title       string
	link        string
	description string
	pubDate     time.Time
}

// NewReview создает запись и приводит дату публикации к UTC.
// Пустые заголовок или ссылка считаются ошибкой.
func NewReview(title, link, description string, pubDate time.Time) (Review, error) {
	title = strings.TrimSpace(title)
	link = strings.TrimSpace(link)
	if title == "" {
		return Review{}, ErrEmptyTitle
	}
	if link == "" {
		return Review{}, fmt.Errorf("%w: %q", ErrEmptyLink, title)
	}
	return Review{
		title:       title,
		link:        link,
		description: description,
		pubDate:     pubDate.UTC(),
	}, nil
}

func (r Review) Title() string       { return r.title }
func (r Review) Link() string        { return r.link }
func (r Review) Description() string { return r.description }
func (r Review) PubDate() time.Time  { return r.pubDate }

// PubDateRFC822 возвращает дату публикации в формате pubDate.
func (r Review) PubDateRFC822() string {
	return r.pubDate.Format(PubDateLayout)
}

// Item возвращает элемент RSS для записи.
func (r Review) Item() Item {
	return Item{
		Title:       r.title,
		Link:        r.link,
		Description: CDATA{Text: r.description},
		PubDate:     r.PubDateRFC822(),
	}
}

// XML возвращает фрагмент <item> с отступами.
// Заголовок и ссылка экранируются, описание помещается в CDATA.
func (r Review) XML() (string, error) {
	out, err := xml.MarshalIndent(r.Item(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal item %q: %w", r.title, err)
	}
	return string(out), nil
}
