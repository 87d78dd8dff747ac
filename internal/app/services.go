package app

import (
	"context"
	"strings"

	"github.com/XrOne/studio-jenial-sub004/internal/clients/redis"
	"github.com/XrOne/studio-jenial-sub004/internal/generation"
	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/services"
	"github.com/XrOne/studio-jenial-sub004/internal/sse"
	"github.com/XrOne/studio-jenial-sub004/internal/storage"
)

type Services struct {
	Project    services.ProjectService
	Segment    services.SegmentService
	Generation services.GenerationService
	Notifier   services.RevisionNotifier
	Registry   *generation.Registry
	Selector   *storage.Selector
	Bus        redis.SSEBus
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, reposet Repos, hub *sse.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	registry := generation.NewRegistry()
	serverKeys := make(map[string]string)
	for _, pc := range cfg.Providers {
		p, err := generation.NewHTTPProvider(log, pc.HTTP)
		if err != nil {
			return Services{}, err
		}
		if err := registry.Register(p); err != nil {
			return Services{}, err
		}
		if strings.TrimSpace(pc.Key) != "" {
			serverKeys[pc.HTTP.ID] = pc.Key
		}
	}

	poller := generation.NewPoller(log, generation.PollConfig{
		Interval: cfg.PollInterval,
		Ceiling:  cfg.PollCeiling,
	})

	selector, err := wireStorage(ctx, log, cfg)
	if err != nil {
		return Services{}, err
	}

	// The redis bus is optional; without REDIS_ADDR events stay local.
	bus, err := redis.NewSSEBus(log)
	if err != nil {
		log.Info("SSE bus disabled", "reason", err)
		bus = nil
	} else if err := bus.StartForwarder(ctx, hub.Broadcast); err != nil {
		log.Warn("SSE forwarder failed to start, events stay local", "error", err)
		_ = bus.Close()
		bus = nil
	}

	notifier := services.NewRevisionNotifier(log, hub, bus)
	projectService := services.NewProjectService(log, reposet.Project, reposet.Track)
	segmentService := services.NewSegmentService(log, reposet.Project, reposet.Track, reposet.Segment, reposet.Revision, notifier)
	generationService := services.NewGenerationService(log, registry, poller, selector, serverKeys,
		reposet.Project, reposet.Segment, reposet.Revision, reposet.Asset, reposet.Keyframe, notifier)

	return Services{
		Project:    projectService,
		Segment:    segmentService,
		Generation: generationService,
		Notifier:   notifier,
		Registry:   registry,
		Selector:   selector,
		Bus:        bus,
	}, nil
}
