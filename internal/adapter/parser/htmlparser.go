package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"reviewfeed/internal/domain"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrContainerNotFound = errors.New("content container not found")
	ErrNoItemsFound      = errors.New("no review items found")
)

// Селекторы разметки страницы списка тестов.
var (
	containerSelector   = cascadia.MustCompile("main div.pt-4:not(.row)")
	itemSelector        = cascadia.MustCompile(".card:not(.native-ad-story) .boxlink")
	titleSelector       = cascadia.MustCompile(".card-body .card-title")
	imageSelector       = cascadia.MustCompile(".card-img img")
	descriptionSelector = cascadia.MustCompile(".card-body .card-text")
	dateMarkerSelector  = cascadia.MustCompile("span")
)

// HTMLParser извлекает тесты со страницы списка.
// Относительные ссылки разрешаются относительно baseURL.
type HTMLParser struct {
	log       *slog.Logger
	baseURL   *url.URL
	sanitizer *bluemonday.Policy
}

// NewHTMLParser создает парсер; baseURL должен быть абсолютным адресом сайта.
func NewHTMLParser(log *slog.Logger, baseURL string) (*HTMLParser, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	return &HTMLParser{
		log:       log.With(slog.String("component", "parser")),
		baseURL:   base,
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

// Parse разбирает страницу относительно текущего момента; см. ParseAt.
func (p *HTMLParser) Parse(ctx context.Context, reader io.Reader) ([]domain.Review, error) {
	return p.ParseAt(ctx, reader, time.Now())
}

// ParseAt разбирает HTML и возвращает тесты в порядке их появления на странице.
// ref задает год для дат, указанных без года.
// Отсутствие контейнера или элементов - ошибка всего запуска; проблемы
// отдельного элемента логируются, и элемент пропускается.
func (p *HTMLParser) ParseAt(ctx context.Context, reader io.Reader, ref time.Time) ([]domain.Review, error) {
	const op = "parser.html.Parse"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.log.With(slog.String("op", op))
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		log.Error("Error parsing HTML", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	container := doc.FindMatcher(containerSelector).First()
	if container.Length() == 0 {
		log.Error("Content container not found")
		return nil, ErrContainerNotFound
	}
	items := container.FindMatcher(itemSelector)
	if items.Length() == 0 {
		log.Error("No review items found")
		return nil, ErrNoItemsFound
	}
	log.Info("Review items found", slog.Int("count", items.Length()))

	reviews := make([]domain.Review, 0, items.Length())
	items.Each(func(i int, item *goquery.Selection) {
		review, ok := p.parseItem(log.With(slog.Int("item", i)), item, ref)
		if ok {
			reviews = append(reviews, review)
		}
	})
	log.Info("Reviews extracted",
		slog.Int("items_found", items.Length()),
		slog.Int("items_parsed", len(reviews)),
	)
	return reviews, nil
}

// parseItem превращает один узел списка в запись. Возвращает false, если
// элемент нужно пропустить; причина уже залогирована.
func (p *HTMLParser) parseItem(log *slog.Logger, item *goquery.Selection, ref time.Time) (domain.Review, bool) {
	title := textOf(item, titleSelector)
	if title == "" {
		log.Warn("Title not found, skipping item")
		return domain.Review{}, false
	}
	log = log.With(slog.String("item_title", title))

	link := p.linkOf(item)
	if link == "" {
		log.Warn("Link not found, skipping item")
		return domain.Review{}, false
	}

	image := p.imageOf(item)
	if image == "" {
		log.Warn("Image not found, item kept without image")
	}

	content := item.FindMatcher(descriptionSelector).First()
	if content.Length() == 0 {
		log.Warn("Description not found, skipping item")
		return domain.Review{}, false
	}

	dateText, ok := takeDateMarker(content)
	if !ok {
		log.Warn("Date marker not found, skipping item")
		return domain.Review{}, false
	}
	pubDate, err := ParseDateAt(dateText, ref)
	if err != nil {
		log.Warn("Could not parse date, skipping item",
			slog.String("date", dateText),
			slog.Any("error", err),
		)
		return domain.Review{}, false
	}

	if image != "" {
		content.AppendNodes(imageNode(image))
	}
	description, err := goquery.OuterHtml(content)
	if err != nil {
		log.Warn("Could not render description, skipping item", slog.Any("error", err))
		return domain.Review{}, false
	}
	description = strings.TrimSpace(p.sanitizer.Sanitize(description))

	review, err := domain.NewReview(title, link, description, pubDate)
	if err != nil {
		log.Warn("Invalid review, skipping item", slog.Any("error", err))
		return domain.Review{}, false
	}
	return review, true
}

// textOf возвращает обрезанный текст первого совпадения или "" при его отсутствии.
func textOf(sel *goquery.Selection, m goquery.Matcher) string {
	return strings.TrimSpace(sel.FindMatcher(m).First().Text())
}

// linkOf возвращает абсолютную ссылку из href узла или "" при отсутствии атрибута.
func (p *HTMLParser) linkOf(item *goquery.Selection) string {
	href := strings.TrimSpace(item.AttrOr("href", ""))
	if href == "" {
		return ""
	}
	return p.resolve(href)
}

// imageOf возвращает адрес картинки: data-src (ленивая загрузка), затем src.
// По умолчанию "".
func (p *HTMLParser) imageOf(item *goquery.Selection) string {
	img := item.FindMatcher(imageSelector).First()
	if img.Length() == 0 {
		return ""
	}
	src := strings.TrimSpace(img.AttrOr("data-src", ""))
	if src == "" {
		src = strings.TrimSpace(img.AttrOr("src", ""))
	}
	if src == "" {
		return ""
	}
	return p.resolve(src)
}

func (p *HTMLParser) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}

// takeDateMarker читает текст первого span описания и удаляет его из дерева.
func takeDateMarker(content *goquery.Selection) (string, bool) {
	marker := content.FindMatcher(dateMarkerSelector).First()
	if marker.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(marker.Text())
	marker.Remove()
	return text, true
}

func imageNode(src string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Img,
		Data:     "img",
		Attr:     []html.Attribute{{Key: "src", Val: src}},
	}
}
