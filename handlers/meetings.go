package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stdtrack/stdtrack/internal/lineage"
	"github.com/stdtrack/stdtrack/internal/registry"
	"github.com/stdtrack/stdtrack/pkg/logger"
	"github.com/stdtrack/stdtrack/pkg/metrics"
	"github.com/stdtrack/stdtrack/pkg/middleware"
)

// MeetingsHandler serves meeting lifecycle endpoints.
type MeetingsHandler struct {
	reg    *registry.Service
	engine *lineage.Engine
}

func NewMeetingsHandler(reg *registry.Service, engine *lineage.Engine) *MeetingsHandler {
	return &MeetingsHandler{reg: reg, engine: engine}
}

func (h *MeetingsHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/meetings", middleware.RequireChair(), h.Create)
	m := rg.Group("/standards/:acronym/meetings")
	m.GET("", h.List)
	m.GET("/:meeting", h.Get)
	m.PATCH("/:meeting", middleware.RequireChair(), h.Update)
	m.DELETE("/:meeting", middleware.RequireChair(), h.Delete)
	m.POST("/:meeting/complete", middleware.RequireChair(), h.Complete)
	m.POST("/:meeting/reopen", middleware.RequireChair(), h.Reopen)
}

// CreateMeetingsRequest creates the same meeting under several
// standards at once.
type CreateMeetingsRequest struct {
	StandardAcronyms []string `json:"standardAcronyms" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	StartDate        string   `json:"startDate" binding:"required"`
	EndDate          string   `json:"endDate" binding:"required"`
	Description      string   `json:"description"`
}

// Create adds the meeting to every selected standard. Per-standard
// failures are collected; a partial result returns 207.
func (h *MeetingsHandler) Create(c *gin.Context) {
	var req CreateMeetingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.StandardAcronyms) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one standard is required"})
		return
	}

	created := make([]*lineage.Meeting, 0, len(req.StandardAcronyms))
	var errs []string
	for _, acronym := range req.StandardAcronyms {
		m, err := h.reg.CreateMeeting(c.Request.Context(), acronym, registry.CreateMeetingInput{
			Title:       req.Title,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Description: req.Description,
		})
		if err != nil {
			logger.Warnf("meeting create failed for %s: %v", acronym, err)
			errs = append(errs, fmt.Sprintf("%s: %v", acronym, err))
			continue
		}
		created = append(created, m)
	}

	if len(errs) > 0 {
		c.JSON(http.StatusMultiStatus, gin.H{
			"createdCount": len(created),
			"meetings":     created,
			"errors":       errs,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"createdCount": len(created), "meetings": created})
}

func (h *MeetingsHandler) List(c *gin.Context) {
	_, meetings, err := h.reg.Standard(c.Request.Context(), c.Param("acronym"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meetings)
}

// Get returns the meeting with its full document snapshot.
func (h *MeetingsHandler) Get(c *gin.Context) {
	acronym, id := c.Param("acronym"), c.Param("meeting")
	m, err := h.reg.Meeting(c.Request.Context(), acronym, id)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.engine.Snapshot(c.Request.Context(), acronym, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting": m, "snapshot": snap})
}

func (h *MeetingsHandler) Update(c *gin.Context) {
	var req struct {
		Title       *string `json:"title"`
		StartDate   *string `json:"startDate"`
		EndDate     *string `json:"endDate"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.reg.UpdateMeeting(c.Request.Context(), c.Param("acronym"), c.Param("meeting"), registry.UpdateMeetingInput{
		Title:       req.Title,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MeetingsHandler) Delete(c *gin.Context) {
	if err := h.reg.DeleteMeeting(c.Request.Context(), c.Param("acronym"), c.Param("meeting")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete finalizes the meeting; requires a result document.
func (h *MeetingsHandler) Complete(c *gin.Context) {
	if err := h.engine.Finalize(c.Request.Context(), c.Param("acronym"), c.Param("meeting")); err != nil {
		metrics.LineageOps.WithLabelValues("finalize", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("finalize", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"isCompleted": true})
}

// Reopen restores mutability on a finalized meeting.
func (h *MeetingsHandler) Reopen(c *gin.Context) {
	if err := h.engine.Reopen(c.Request.Context(), c.Param("acronym"), c.Param("meeting")); err != nil {
		metrics.LineageOps.WithLabelValues("reopen", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("reopen", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"isCompleted": false})
}
