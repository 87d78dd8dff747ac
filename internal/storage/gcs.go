package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

const GCSBackendName = "gcs"

type GCSConfig struct {
	Bucket string
	// Credentials is either a path to a service-account file or inline JSON.
	Credentials string
	CDNDomain   string
}

type gcsBackend struct {
	log       *logger.Logger
	client    *gcs.Client
	bucket    string
	cdnDomain string
	disabled  bool
}

func NewGCSBackend(ctx context.Context, log *logger.Logger, cfg GCSConfig) (Backend, error) {
	blog := log.With("service", "GCSStorage")

	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		blog.Warn("GCS bucket not set; backend registered as unavailable")
		return &gcsBackend{log: blog, disabled: true}, nil
	}

	opts := []option.ClientOption{}
	if creds := strings.TrimSpace(cfg.Credentials); creds != "" {
		if strings.HasPrefix(creds, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	blog.Info("GCS storage initialized", "bucket", bucket, "cdn_domain", cfg.CDNDomain)
	return &gcsBackend{
		log:       blog,
		client:    client,
		bucket:    bucket,
		cdnDomain: strings.TrimSpace(cfg.CDNDomain),
	}, nil
}

func (b *gcsBackend) Name() string { return GCSBackendName }

// IsAvailable probes bucket metadata with a short deadline. Attrs is a pure
// read, so repeated probes are harmless.
func (b *gcsBackend) IsAvailable(ctx context.Context) bool {
	if b.disabled || b.client == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := b.client.Bucket(b.bucket).Attrs(probeCtx)
	if err != nil {
		b.log.Debug("GCS availability probe failed", "bucket", b.bucket, "error", err)
		return false
	}
	return true
}

func (b *gcsBackend) Upload(ctx context.Context, in UploadInput) (*StoredObject, error) {
	if b.disabled {
		return nil, fmt.Errorf("gcs storage not configured")
	}

	key := objectKey(in.Filename)
	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	if in.ContentType != "" {
		w.ContentType = in.ContentType
	}
	if in.CacheControl != "" {
		w.CacheControl = in.CacheControl
	}

	size, err := io.Copy(w, in.Body)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize gcs object: %w", err)
	}

	return &StoredObject{
		PublicURL: b.PublicURL(key),
		Path:      key,
		Size:      size,
		Provider:  b.Name(),
	}, nil
}

func (b *gcsBackend) PublicURL(path string) string {
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, path)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, path)
}
