package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout ограничивает время одного запроса к странице списка.
const DefaultTimeout = 10 * time.Second

// ListingURL строит адрес страницы тестов за текущий месяц:
// <base>?DatumAb=01.<месяц>.<год>. Месяц указывается без ведущего нуля.
func ListingURL(base string, now time.Time) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}
	q := u.Query()
	q.Set("DatumAb", fmt.Sprintf("01.%d.%d", int(now.Month()), now.Year()))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HTTPFetcher загружает HTML страницы по HTTP.
// Обеспечивает обработку ошибок сети, таймаутов и HTTP-статусов. Повторов нет.
type HTTPFetcher struct {
	client *resty.Client
	log    *slog.Logger
}

// NewHTTPFetcher создает HTTPFetcher с ограничением времени запроса timeout.
// Нулевой timeout заменяется на DefaultTimeout.
func NewHTTPFetcher(log *slog.Logger, timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "text/html")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &HTTPFetcher{
		client: client,
		log:    log,
	}
}

// Fetch выполняет GET-запрос и возвращает тело ответа, которое нужно закрыть.
// Любой статус кроме 200 считается ошибкой.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("component", "fetcher"), slog.String("url", url))
	log.Info("Fetching URL")
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch url %s: %w", url, err)
	}
	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		if body != nil {
			body.Close()
		}
		log.Error("Unexpected status code", slog.Int("status_code", resp.StatusCode()))
		return nil, fmt.Errorf("unexpected status code: %d for url %s", resp.StatusCode(), url)
	}
	log.Info("Successfully fetched URL", slog.Duration("duration", resp.Time()))
	return body, nil
}
