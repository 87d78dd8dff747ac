package storage

import (
	"context"
	"fmt"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

// Selector holds the process-wide backend registry. Registration happens at
// startup only; after that the registry is read-mostly shared state, never
// mutated mid-request. Registration order is the documented fallback
// priority: when the default is unavailable the first registered available
// backend wins.
type Selector struct {
	log         *logger.Logger
	order       []string
	backends    map[string]Backend
	defaultName string
}

func NewSelector(log *logger.Logger) *Selector {
	return &Selector{
		log:      log.With("component", "StorageSelector"),
		backends: make(map[string]Backend),
	}
}

func (s *Selector) Register(b Backend) error {
	if b == nil || b.Name() == "" {
		return fmt.Errorf("backend with empty name")
	}
	if _, dup := s.backends[b.Name()]; dup {
		return fmt.Errorf("storage backend %q already registered", b.Name())
	}
	s.backends[b.Name()] = b
	s.order = append(s.order, b.Name())
	s.log.Info("Storage backend registered", "backend", b.Name(), "fallback_rank", len(s.order))
	return nil
}

func (s *Selector) SetDefault(name string) error {
	if _, ok := s.backends[name]; !ok {
		return fmt.Errorf("cannot default to unregistered backend %q", name)
	}
	s.defaultName = name
	return nil
}

func (s *Selector) Default() string { return s.defaultName }

func (s *Selector) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Pick returns the backend to upload with: the configured default when it
// probes available, otherwise the first registered available backend.
func (s *Selector) Pick(ctx context.Context) (Backend, error) {
	tried := make([]string, 0, len(s.order)+1)

	if s.defaultName != "" {
		b := s.backends[s.defaultName]
		if b.IsAvailable(ctx) {
			return b, nil
		}
		tried = append(tried, s.defaultName)
		s.log.Warn("Default storage backend unavailable, falling back", "backend", s.defaultName)
	}

	for _, name := range s.order {
		if name == s.defaultName {
			continue
		}
		b := s.backends[name]
		if b.IsAvailable(ctx) {
			s.log.Debug("Storage backend selected by fallback order", "backend", name)
			return b, nil
		}
		tried = append(tried, name)
	}

	return nil, &NoProviderAvailableError{Default: s.defaultName, Tried: tried}
}

// Upload picks a backend and stores the artifact on it.
func (s *Selector) Upload(ctx context.Context, in UploadInput) (*StoredObject, error) {
	b, err := s.Pick(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := b.Upload(ctx, in)
	if err != nil {
		return nil, &UploadError{Provider: b.Name(), Cause: err}
	}
	return obj, nil
}
