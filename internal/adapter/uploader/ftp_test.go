package uploader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reviewfeed/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	calls    []string
	loginErr error
	cwdErr   error
	storErr  error
	stored   map[string]string
}

func (c *fakeConn) Login(user, password string) error {
	c.calls = append(c.calls, "LOGIN "+user+":"+password)
	return c.loginErr
}

func (c *fakeConn) ChangeDir(path string) error {
	c.calls = append(c.calls, "CWD "+path)
	return c.cwdErr
}

func (c *fakeConn) Stor(path string, r io.Reader) error {
	c.calls = append(c.calls, "STOR "+path)
	if c.storErr != nil {
		return c.storErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if c.stored == nil {
		c.stored = make(map[string]string)
	}
	c.stored[path] = string(data)
	return nil
}

func (c *fakeConn) Quit() error {
	c.calls = append(c.calls, "QUIT")
	return nil
}

type dialRecorder struct {
	conn    *fakeConn
	err     error
	addr    string
	timeout time.Duration
	dials   int
}

func (d *dialRecorder) dial(_ context.Context, addr string, timeout time.Duration) (Conn, error) {
	d.dials++
	d.addr = addr
	d.timeout = timeout
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1000ps.rss")
	require.NoError(t, os.WriteFile(path, []byte("<rss/>"), 0o644))
	return path
}

func newTestUploader(cfg config.FTPConfig, d *dialRecorder) *FTPUploader {
	return NewFTPUploader(cfg, d.dial, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFTPUploader_Upload_Success(t *testing.T) {
	d := &dialRecorder{conn: &fakeConn{}}
	cfg := config.FTPConfig{Host: "ftp.example.org", User: "u", Pass: "p", Path: "/feeds", Timeout: 5 * time.Second}

	err := newTestUploader(cfg, d).Upload(context.Background(), writeFeed(t))

	require.NoError(t, err)
	assert.Equal(t, "ftp.example.org:21", d.addr)
	assert.Equal(t, 5*time.Second, d.timeout)
	assert.Equal(t, []string{"LOGIN u:p", "CWD /feeds", "STOR 1000ps.rss", "QUIT"}, d.conn.calls)
	assert.Equal(t, "<rss/>", d.conn.stored["1000ps.rss"])
}

func TestFTPUploader_Upload_WithoutPath(t *testing.T) {
	d := &dialRecorder{conn: &fakeConn{}}
	cfg := config.FTPConfig{Host: "ftp.example.org:2121", User: "u", Pass: "p"}

	err := newTestUploader(cfg, d).Upload(context.Background(), writeFeed(t))

	require.NoError(t, err)
	assert.Equal(t, "ftp.example.org:2121", d.addr)
	assert.Equal(t, DefaultTimeout, d.timeout)
	assert.Equal(t, []string{"LOGIN u:p", "STOR 1000ps.rss", "QUIT"}, d.conn.calls)
}

func TestFTPUploader_Upload_HostNotSet(t *testing.T) {
	d := &dialRecorder{conn: &fakeConn{}}

	err := newTestUploader(config.FTPConfig{User: "u", Pass: "p"}, d).Upload(context.Background(), "missing.rss")

	require.NoError(t, err)
	assert.Zero(t, d.dials)
}

func TestFTPUploader_Upload_MissingCredentials(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.FTPConfig
	}{
		{name: "no user", cfg: config.FTPConfig{Host: "h", Pass: "p"}},
		{name: "no password", cfg: config.FTPConfig{Host: "h", User: "u"}},
		{name: "nothing", cfg: config.FTPConfig{Host: "h"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &dialRecorder{conn: &fakeConn{}}

			err := newTestUploader(tc.cfg, d).Upload(context.Background(), writeFeed(t))

			assert.True(t, errors.Is(err, ErrMissingCredentials))
			assert.Zero(t, d.dials)
		})
	}
}

func TestFTPUploader_Upload_DialError(t *testing.T) {
	d := &dialRecorder{err: errors.New("connection refused")}
	cfg := config.FTPConfig{Host: "h", User: "u", Pass: "p"}

	err := newTestUploader(cfg, d).Upload(context.Background(), writeFeed(t))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFTPUploader_Upload_QuitsOnFailure(t *testing.T) {
	testCases := []struct {
		name  string
		conn  *fakeConn
		calls []string
	}{
		{
			name:  "login",
			conn:  &fakeConn{loginErr: errors.New("530 login incorrect")},
			calls: []string{"LOGIN u:p", "QUIT"},
		},
		{
			name:  "change dir",
			conn:  &fakeConn{cwdErr: errors.New("550 no such directory")},
			calls: []string{"LOGIN u:p", "CWD /feeds", "QUIT"},
		},
		{
			name:  "stor",
			conn:  &fakeConn{storErr: errors.New("451 transfer aborted")},
			calls: []string{"LOGIN u:p", "CWD /feeds", "STOR 1000ps.rss", "QUIT"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &dialRecorder{conn: tc.conn}
			cfg := config.FTPConfig{Host: "h", User: "u", Pass: "p", Path: "/feeds"}

			err := newTestUploader(cfg, d).Upload(context.Background(), writeFeed(t))

			assert.Error(t, err)
			assert.Equal(t, tc.calls, tc.conn.calls)
		})
	}
}

func TestFTPUploader_Upload_MissingLocalFile(t *testing.T) {
	d := &dialRecorder{conn: &fakeConn{}}
	cfg := config.FTPConfig{Host: "h", User: "u", Pass: "p"}

	err := newTestUploader(cfg, d).Upload(context.Background(), filepath.Join(t.TempDir(), "nope.rss"))

	assert.Error(t, err)
	assert.Zero(t, d.dials)
}

func TestHostAddr(t *testing.T) {
	assert.Equal(t, "ftp.example.org:21", hostAddr("ftp.example.org"))
	assert.Equal(t, "ftp.example.org:990", hostAddr(" ftp.example.org:990 "))
	assert.Equal(t, "[::1]:21", hostAddr("::1"))
}
