package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

// Config представляет основную конфигурацию генератора ленты.
// Содержит настройки логгера, источника, ленты и FTP-выгрузки.
type Config struct {
	Logger LoggerConfig `json:"logger" hcl:"logger" env:"LOG"`
	Source SourceConfig `json:"source" hcl:"source" env:"SOURCE"`
	Feed   FeedConfig   `json:"feed" hcl:"feed" env:"FEED"`
	FTP    FTPConfig    `json:"ftp" hcl:"ftp" env:"FTP"`
}

// LoggerConfig содержит настройки системы логирования.
// File - путь к файлу лога; относительный путь считается от каталога программы.
type LoggerConfig struct {
	Level string `json:"level" hcl:"level" env:"LEVEL" default:"info"`
	File  string `json:"file" hcl:"file" env:"FILE" default:"app.log"`
}

// SourceConfig описывает страницу со списком тестов.
type SourceConfig struct {
	ListingURL string        `json:"listing_url" hcl:"listing_url" env:"LISTING_URL" default:"https://www.1000ps.de/motorrad-testberichte"`
	BaseURL    string        `json:"base_url" hcl:"base_url" env:"BASE_URL" default:"https://www.1000ps.de"`
	Timeout    time.Duration `json:"timeout" hcl:"timeout" env:"TIMEOUT" default:"10s"`
	UserAgent  string        `json:"user_agent" hcl:"user_agent" env:"USER_AGENT" default:"reviewfeed/1.0"`
}

// FeedConfig содержит метаданные канала и место записи файла.
// Пустой OutputDir означает каталог исполняемого файла.
type FeedConfig struct {
	Title       string `json:"title" hcl:"title" env:"TITLE" default:"1000PS Testberichte"`
	Link        string `json:"link" hcl:"link" env:"LINK" default:"https://www.1000ps.de/motorrad-testberichte"`
	Description string `json:"description" hcl:"description" env:"DESCRIPTION" default:"Die neuesten Testberichte von 1000PS"`
	FileName    string `json:"file_name" hcl:"file_name" env:"FILE_NAME" default:"1000ps.rss"`
	OutputDir   string `json:"output_dir" hcl:"output_dir" env:"OUTPUT_DIR"`
	Timezone    string `json:"timezone" hcl:"timezone" env:"TIMEZONE" default:"Local"`
}

// FTPConfig содержит параметры выгрузки: FTP_HOST, FTP_USER, FTP_PASS, FTP_PATH.
// Пустой Host отключает выгрузку.
type FTPConfig struct {
	Host    string        `json:"host" hcl:"host" env:"HOST"`
	User    string        `json:"user" hcl:"user" env:"USER"`
	Pass    string        `json:"pass" hcl:"pass" env:"PASS"`
	Path    string        `json:"path" hcl:"path" env:"PATH"`
	Timeout time.Duration `json:"timeout" hcl:"timeout" env:"TIMEOUT" default:"30s"`
}

// Enabled сообщает, настроена ли выгрузка.
func (c FTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// Load загружает конфигурацию: значения по умолчанию, затем файл (если указан),
// затем переменные окружения. Файл может быть в формате JSON или HCL.
func Load(configPath string) (*Config, error) {
	var cfg Config
	var files []string
	if configPath != "" {
		files = []string{configPath}
	}
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownFields: true,
		AllowUnknownEnvs:   true,
		FailOnFileNotFound: configPath != "",
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	return &cfg, nil
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку с описанием первой найденной проблемы.
// Наличие учетных данных FTP проверяется при выгрузке.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Source.ListingURL); err != nil {
		return fmt.Errorf("invalid source.listing_url: %s", c.Source.ListingURL)
	}
	if _, err := url.ParseRequestURI(c.Source.BaseURL); err != nil {
		return fmt.Errorf("invalid source.base_url: %s", c.Source.BaseURL)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if c.Feed.FileName == "" {
		return fmt.Errorf("feed.file_name must not be empty")
	}
	if c.Feed.Title == "" {
		return fmt.Errorf("feed.title must not be empty")
	}
	if _, err := time.LoadLocation(c.Feed.Timezone); err != nil {
		return fmt.Errorf("invalid feed.timezone: %w", err)
	}
	if c.FTP.Timeout <= 0 {
		return fmt.Errorf("ftp.timeout must be positive")
	}
	return nil
}
