package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"reviewfeed/internal/config"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	DefaultTimeout = 30 * time.Second
	defaultPort    = "21"
)

var ErrMissingCredentials = errors.New("ftp user or password is not set")

// Conn - подмножество операций FTP-соединения, которое использует загрузчик.
type Conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	Stor(path string, r io.Reader) error
	Quit() error
}

// DialFunc открывает FTP-соединение с addr.
type DialFunc func(ctx context.Context, addr string, timeout time.Duration) (Conn, error)

// DialFTP подключается к серверу через jlaffaye/ftp.
func DialFTP(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// FTPUploader выгружает файл ленты на FTP-сервер.
// При пустом Host выгрузка пропускается.
type FTPUploader struct {
	cfg  config.FTPConfig
	dial DialFunc
	log  *slog.Logger
}

func NewFTPUploader(cfg config.FTPConfig, dial DialFunc, log *slog.Logger) *FTPUploader {
	if dial == nil {
		dial = DialFTP
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &FTPUploader{
		cfg:  cfg,
		dial: dial,
		log:  log.With(slog.String("component", "uploader")),
	}
}

// Upload передает localPath на сервер под его базовым именем.
// Учетные данные проверяются до подключения; после подключения
// сессия всегда завершается командой QUIT.
func (u *FTPUploader) Upload(ctx context.Context, localPath string) error {
	const op = "uploader.ftp.Upload"
	log := u.log.With(slog.String("op", op))
	if !u.cfg.Enabled() {
		log.Info("FTP host not configured, upload skipped")
		return nil
	}
	if u.cfg.User == "" || u.cfg.Pass == "" {
		log.Error("FTP credentials missing")
		return ErrMissingCredentials
	}

	f, err := os.Open(localPath)
	if err != nil {
		log.Error("Failed to open local file", slog.String("path", localPath), slog.Any("error", err))
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	addr := hostAddr(u.cfg.Host)
	log = log.With(slog.String("addr", addr))
	conn, err := u.dial(ctx, addr, u.cfg.Timeout)
	if err != nil {
		log.Error("FTP connection failed", slog.Any("error", err))
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer func() {
		if qerr := conn.Quit(); qerr != nil {
			log.Warn("FTP quit failed", slog.Any("error", qerr))
		}
	}()
	log.Debug("FTP connected")

	if err := conn.Login(u.cfg.User, u.cfg.Pass); err != nil {
		log.Error("FTP login failed", slog.Any("error", err))
		return fmt.Errorf("ftp login failed: %w", err)
	}
	if u.cfg.Path != "" {
		if err := conn.ChangeDir(u.cfg.Path); err != nil {
			log.Error("FTP change dir failed", slog.String("path", u.cfg.Path), slog.Any("error", err))
			return fmt.Errorf("ftp cwd %s failed: %w", u.cfg.Path, err)
		}
	}
	name := filepath.Base(localPath)
	if err := conn.Stor(name, f); err != nil {
		log.Error("FTP upload failed", slog.String("file", name), slog.Any("error", err))
		return fmt.Errorf("ftp stor %s failed: %w", name, err)
	}
	log.Info("Feed uploaded", slog.String("file", name), slog.String("path", u.cfg.Path))
	return nil
}

// hostAddr добавляет порт 21, если он не указан.
func hostAddr(host string) string {
	host = strings.TrimSpace(host)
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultPort)
}
