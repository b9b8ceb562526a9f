package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ImageStorage = (*LocalStorage)(nil)

type LocalStorage struct {
	dir       string
	urlPrefix string
}

// NewLocalStorage creates the directory when missing.
func NewLocalStorage(dir, urlPrefix string) (LocalStorage, error) {
	const op = "NewLocalStorage"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return LocalStorage{}, fmt.Errorf("%s: %w", op, err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return LocalStorage{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s LocalStorage) SaveImage(
	ctx context.Context, name string, r io.Reader, _ string,
) error {
	const op = "LocalStorage.SaveImage"
	log := slog.With("op", op)

	name, err := CleanName(name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dst := filepath.Join(s.dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.DebugContext(ctx, "image saved", "path", dst)
	return nil
}

func (s LocalStorage) ImageURL(name string) string {
	return s.urlPrefix + name
}

// Handler serves the stored files under the url prefix.
func (s LocalStorage) Handler() http.Handler {
	return http.StripPrefix(s.urlPrefix, http.FileServer(http.Dir(s.dir)))
}

func (s LocalStorage) URLPrefix() string {
	return s.urlPrefix
}
