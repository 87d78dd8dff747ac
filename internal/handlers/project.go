package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/services"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
)

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
	segmentService services.SegmentService
}

func NewProjectHandler(log *logger.Logger, projectService services.ProjectService, segmentService services.SegmentService) *ProjectHandler {
	return &ProjectHandler{
		log:            log.With("handler", "ProjectHandler"),
		projectService: projectService,
		segmentService: segmentService,
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var input services.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	project, err := h.projectService.Create(c.Request.Context(), input)
	if err != nil {
		h.log.Error("Create project failed", "error", err)
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List projects failed", "error", err)
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "project_id")
	if !ok {
		return
	}
	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "project_id")
	if !ok {
		return
	}
	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func (h *ProjectHandler) CreateTrack(c *gin.Context) {
	id, ok := parseID(c, "project_id")
	if !ok {
		return
	}
	var body struct {
		Kind types.TrackKind `json:"kind"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	track, err := h.projectService.CreateTrack(c.Request.Context(), id, body.Kind)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"track": track})
}

func (h *ProjectHandler) ListTracks(c *gin.Context) {
	id, ok := parseID(c, "project_id")
	if !ok {
		return
	}
	tracks, err := h.projectService.ListTracks(c.Request.Context(), id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"tracks": tracks})
}

func (h *ProjectHandler) TrackLayout(c *gin.Context) {
	trackID, ok := parseID(c, "track_id")
	if !ok {
		return
	}
	items, err := h.segmentService.TrackLayout(c.Request.Context(), trackID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

func (h *ProjectHandler) ExportEDL(c *gin.Context) {
	trackID, ok := parseID(c, "track_id")
	if !ok {
		return
	}
	edl, err := h.segmentService.ExportEDL(c.Request.Context(), trackID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\"track.edl\"")
	c.String(http.StatusOK, edl)
}
