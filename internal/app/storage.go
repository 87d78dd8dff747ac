package app

import (
	"context"
	"strings"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/storage"
)

// wireStorage registers every configured backend on the selector. Backends
// that are configured but unreachable still register; they report
// unavailable and the selector falls through in registration order. The
// default comes from config and must name a registered backend.
func wireStorage(ctx context.Context, log *logger.Logger, cfg Config) (*storage.Selector, error) {
	selector := storage.NewSelector(log)

	local, err := storage.NewLocalBackend(log, cfg.Local)
	if err != nil {
		return nil, err
	}
	if err := selector.Register(local); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.GCS.Bucket) != "" {
		gcs, err := storage.NewGCSBackend(ctx, log, cfg.GCS)
		if err != nil {
			log.Warn("GCS backend init failed, continuing without it", "error", err)
		} else if err := selector.Register(gcs); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(cfg.S3.Bucket) != "" {
		s3b, err := storage.NewS3Backend(ctx, log, cfg.S3)
		if err != nil {
			log.Warn("S3 backend init failed, continuing without it", "error", err)
		} else if err := selector.Register(s3b); err != nil {
			return nil, err
		}
	}

	if err := selector.SetDefault(cfg.StorageDefault); err != nil {
		log.Warn("Configured storage default not registered, using local", "default", cfg.StorageDefault)
		if err := selector.SetDefault(storage.LocalBackendName); err != nil {
			return nil, err
		}
	}
	return selector, nil
}
