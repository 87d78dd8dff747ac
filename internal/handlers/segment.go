package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/services"
)

type SegmentHandler struct {
	log            *logger.Logger
	segmentService services.SegmentService
}

func NewSegmentHandler(log *logger.Logger, segmentService services.SegmentService) *SegmentHandler {
	return &SegmentHandler{
		log:            log.With("handler", "SegmentHandler"),
		segmentService: segmentService,
	}
}

func (h *SegmentHandler) Create(c *gin.Context) {
	var input services.CreateSegmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	segment, err := h.segmentService.Create(c.Request.Context(), input)
	if err != nil {
		h.log.Error("Create segment failed", "error", err)
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"segment": segment})
}

func (h *SegmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "segment_id")
	if !ok {
		return
	}
	segment, err := h.segmentService.Get(c.Request.Context(), id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"segment": segment})
}

func (h *SegmentHandler) UpdateTiming(c *gin.Context) {
	id, ok := parseID(c, "segment_id")
	if !ok {
		return
	}
	var body struct {
		InSec  float64 `json:"in_sec"`
		OutSec float64 `json:"out_sec"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	segment, err := h.segmentService.UpdateTiming(c.Request.Context(), services.UpdateTimingInput{
		SegmentID: id,
		InSec:     body.InSec,
		OutSec:    body.OutSec,
	})
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"segment": segment})
}

func (h *SegmentHandler) SetLocked(c *gin.Context) {
	id, ok := parseID(c, "segment_id")
	if !ok {
		return
	}
	var body struct {
		Locked bool `json:"locked"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.segmentService.SetLocked(c.Request.Context(), id, body.Locked); err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"segment_id": id, "locked": body.Locked})
}

func (h *SegmentHandler) ActivateRevision(c *gin.Context) {
	id, ok := parseID(c, "segment_id")
	if !ok {
		return
	}
	var body struct {
		RevisionID *uuid.UUID `json:"revision_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.segmentService.ActivateRevision(c.Request.Context(), id, body.RevisionID); err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"segment_id": id, "active_revision_id": body.RevisionID})
}

func (h *SegmentHandler) ListRevisions(c *gin.Context) {
	id, ok := parseID(c, "segment_id")
	if !ok {
		return
	}
	revisions, err := h.segmentService.ListRevisions(c.Request.Context(), id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"revisions": revisions})
}

func (h *SegmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "segment_id")
	if !ok {
		return
	}
	if err := h.segmentService.Delete(c.Request.Context(), id); err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}
