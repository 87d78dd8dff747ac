package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

const LocalBackendName = "local"

type LocalConfig struct {
	BasePath string
	BaseURL  string
}

// localBackend writes artifacts under a base directory. Unconfigured means
// registered-but-unavailable, so the selector can skip it.
type localBackend struct {
	log      *logger.Logger
	basePath string
	baseURL  string
	disabled bool
}

func NewLocalBackend(log *logger.Logger, cfg LocalConfig) (Backend, error) {
	blog := log.With("service", "LocalStorage")

	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath == "" {
		blog.Warn("Local storage path not set; backend registered as unavailable")
		return &localBackend{log: blog, disabled: true}, nil
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	blog.Info("Local storage initialized", "path", basePath, "base_url", cfg.BaseURL)
	return &localBackend{
		log:      blog,
		basePath: basePath,
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}, nil
}

func (b *localBackend) Name() string { return LocalBackendName }

func (b *localBackend) IsAvailable(ctx context.Context) bool {
	if b.disabled {
		return false
	}
	info, err := os.Stat(b.basePath)
	return err == nil && info.IsDir()
}

func (b *localBackend) Upload(ctx context.Context, in UploadInput) (*StoredObject, error) {
	if b.disabled {
		return nil, fmt.Errorf("local storage not configured")
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	key := objectKey(in.Filename)
	fullPath := filepath.Join(b.basePath, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}

	return &StoredObject{
		PublicURL: b.PublicURL(key),
		Path:      key,
		Size:      int64(len(data)),
		Provider:  b.Name(),
	}, nil
}

func (b *localBackend) PublicURL(path string) string {
	if b.baseURL == "" {
		return "/media/" + path
	}
	return b.baseURL + "/" + path
}

// objectKey prefixes a sanitized filename with a fresh uuid so repeated
// uploads of the same name never collide.
func objectKey(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "artifact"
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	return uuid.New().String() + "/" + name
}

// SniffContentType fills a missing content type from the artifact bytes and
// returns a reader equivalent to the one passed in.
func SniffContentType(in UploadInput) (UploadInput, error) {
	if strings.TrimSpace(in.ContentType) != "" {
		return in, nil
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return in, fmt.Errorf("read artifact for type detection: %w", err)
	}
	in.ContentType = mimetype.Detect(data).String()
	in.Body = bytes.NewReader(data)
	return in, nil
}
