package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/middleware"
	"github.com/XrOne/studio-jenial-sub004/internal/services"
)

type GenerationHandler struct {
	log               *logger.Logger
	generationService services.GenerationService
}

func NewGenerationHandler(log *logger.Logger, generationService services.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		log:               log.With("handler", "GenerationHandler"),
		generationService: generationService,
	}
}

// Probe reports which providers exist and whether the caller must bring a
// key. No key material crosses this boundary.
func (h *GenerationHandler) Probe(c *gin.Context) {
	RespondOK(c, gin.H{"providers": h.generationService.Probe()})
}

func (h *GenerationHandler) Generate(c *gin.Context) {
	var input services.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	input.UserKey = middleware.UserKey(c)

	rev, err := h.generationService.Generate(c.Request.Context(), input)
	if err != nil {
		h.log.Error("Generate failed", "segment_id", input.SegmentID, "provider", input.Provider, "error", err)
		if rev != nil {
			ae := mapError(err)
			c.JSON(ae.Status, gin.H{"revision": rev, "error": APIError{Message: err.Error(), Code: ae.Code}})
			return
		}
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"revision": rev})
}

func (h *GenerationHandler) GenerateBatch(c *gin.Context) {
	var input services.BatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	input.UserKey = middleware.UserKey(c)

	rev, outcomes, err := h.generationService.GenerateBatch(c.Request.Context(), input)
	if err != nil {
		h.log.Error("Batch generate failed", "segment_id", input.SegmentID, "provider", input.Provider, "error", err)
		if rev != nil {
			ae := mapError(err)
			c.JSON(ae.Status, gin.H{"revision": rev, "items": outcomes, "error": APIError{Message: err.Error(), Code: ae.Code}})
			return
		}
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"revision": rev, "items": outcomes})
}

func (h *GenerationHandler) Retry(c *gin.Context) {
	id, ok := parseID(c, "revision_id")
	if !ok {
		return
	}
	rev, err := h.generationService.Retry(c.Request.Context(), id, middleware.UserKey(c))
	if err != nil {
		h.log.Error("Retry failed", "revision_id", id, "error", err)
		if rev != nil {
			ae := mapError(err)
			c.JSON(ae.Status, gin.H{"revision": rev, "error": APIError{Message: err.Error(), Code: ae.Code}})
			return
		}
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"revision": rev})
}

func (h *GenerationHandler) Reconcile(c *gin.Context) {
	n, err := h.generationService.Reconcile(c.Request.Context())
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"repointed": n})
}
