package storage

import (
	"context"
	"fmt"
	"io"
)

// UploadInput is the neutral upload contract every backend honors.
type UploadInput struct {
	Body         io.Reader
	Filename     string
	ContentType  string
	CacheControl string
}

type StoredObject struct {
	PublicURL string `json:"public_url"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Provider  string `json:"provider"`
}

// Backend is one interchangeable artifact store. IsAvailable is a probe: it
// may reach out to a remote account, must be side-effect free and must stay
// safe to call repeatedly.
type Backend interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Upload(ctx context.Context, in UploadInput) (*StoredObject, error)
	PublicURL(path string) string
}

// NoProviderAvailableError means every registered backend reported
// unavailable.
type NoProviderAvailableError struct {
	Default string
	Tried   []string
}

func (e *NoProviderAvailableError) Error() string {
	return fmt.Sprintf("no storage provider available (default=%q tried=%v)", e.Default, e.Tried)
}

// UploadError wraps a backend failure with the provider that produced it.
type UploadError struct {
	Provider string
	Cause    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (provider=%s): %v", e.Provider, e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Cause }
