package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// SSEStream opens the event stream for one project channel. The connection
// stays subscribed to that channel until the client goes away.
func (h *SSEHandler) SSEStream(c *gin.Context) {
	projectID, ok := parseID(c, "project_id")
	if !ok {
		return
	}

	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, sse.ProjectChannel(projectID))
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
