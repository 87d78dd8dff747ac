package app

import (
	"github.com/gin-gonic/gin"

	"github.com/XrOne/studio-jenial-sub004/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ProjectHandler:       handlerset.Project,
		SegmentHandler:       handlerset.Segment,
		GenerationHandler:    handlerset.Generation,
		SSEHandler:           handlerset.SSE,
		CredentialMiddleware: middlewareset.Credential,
	})
}
