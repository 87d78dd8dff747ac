package app

import (
	"github.com/XrOne/studio-jenial-sub004/internal/handlers"
	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/sse"
)

type Handlers struct {
	Project    *handlers.ProjectHandler
	Segment    *handlers.SegmentHandler
	Generation *handlers.GenerationHandler
	SSE        *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Project:    handlers.NewProjectHandler(log, serviceset.Project, serviceset.Segment),
		Segment:    handlers.NewSegmentHandler(log, serviceset.Segment),
		Generation: handlers.NewGenerationHandler(log, serviceset.Generation),
		SSE:        handlers.NewSSEHandler(log, hub),
	}
}
