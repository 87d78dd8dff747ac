package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

type stubBackend struct {
	name      string
	available bool
	uploads   int
	failWith  error
}

func (b *stubBackend) Name() string                        { return b.name }
func (b *stubBackend) IsAvailable(ctx context.Context) bool { return b.available }
func (b *stubBackend) PublicURL(path string) string         { return "https://" + b.name + "/" + path }

func (b *stubBackend) Upload(ctx context.Context, in UploadInput) (*StoredObject, error) {
	b.uploads++
	if b.failWith != nil {
		return nil, b.failWith
	}
	return &StoredObject{PublicURL: b.PublicURL(in.Filename), Path: in.Filename, Size: 3, Provider: b.name}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestSelectorFallsBackInRegistrationOrder(t *testing.T) {
	sel := NewSelector(testLogger(t))
	a := &stubBackend{name: "a", available: false}
	b := &stubBackend{name: "b", available: true}
	if err := sel.Register(a); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := sel.Register(b); err != nil {
		t.Fatalf("register b: %v", err)
	}

	got, err := sel.Pick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "b" {
		t.Fatalf("fallback: want=b got=%s", got.Name())
	}
}

func TestSelectorPrefersConfiguredDefault(t *testing.T) {
	sel := NewSelector(testLogger(t))
	a := &stubBackend{name: "a", available: true}
	b := &stubBackend{name: "b", available: true}
	if err := sel.Register(a); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := sel.Register(b); err != nil {
		t.Fatalf("register b: %v", err)
	}
	if err := sel.SetDefault("b"); err != nil {
		t.Fatalf("set default: %v", err)
	}

	got, err := sel.Pick(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "b" {
		t.Fatalf("default: want=b got=%s", got.Name())
	}
}

func TestSelectorNoneAvailable(t *testing.T) {
	sel := NewSelector(testLogger(t))
	if err := sel.Register(&stubBackend{name: "a"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := sel.Register(&stubBackend{name: "b"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := sel.Pick(context.Background())
	var none *NoProviderAvailableError
	if !errors.As(err, &none) {
		t.Fatalf("want NoProviderAvailableError, got %v", err)
	}
	if len(none.Tried) != 2 {
		t.Fatalf("tried: want=2 got=%v", none.Tried)
	}
}

func TestSelectorRejectsDuplicateAndUnknownDefault(t *testing.T) {
	sel := NewSelector(testLogger(t))
	if err := sel.Register(&stubBackend{name: "a"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := sel.Register(&stubBackend{name: "a"}); err == nil {
		t.Fatalf("duplicate registration must fail")
	}
	if err := sel.SetDefault("ghost"); err == nil {
		t.Fatalf("defaulting to unregistered backend must fail")
	}
}

func TestSelectorUploadWrapsBackendFailure(t *testing.T) {
	sel := NewSelector(testLogger(t))
	failing := &stubBackend{name: "a", available: true, failWith: fmt.Errorf("disk full")}
	if err := sel.Register(failing); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := sel.Upload(context.Background(), UploadInput{Body: bytes.NewReader([]byte("abc")), Filename: "x.png"})
	var ue *UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("want UploadError, got %v", err)
	}
	if ue.Provider != "a" {
		t.Fatalf("provider: want=a got=%s", ue.Provider)
	}
}

func TestSniffContentType(t *testing.T) {
	in := UploadInput{Body: bytes.NewReader([]byte("%PDF-1.4 not an image")), Filename: "doc.bin"}
	out, err := SniffContentType(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ContentType == "" {
		t.Fatalf("content type should be detected")
	}

	explicit := UploadInput{ContentType: "video/mp4"}
	kept, err := SniffContentType(explicit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kept.ContentType != "video/mp4" {
		t.Fatalf("explicit content type must be kept, got %q", kept.ContentType)
	}
}
