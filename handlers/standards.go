package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stdtrack/stdtrack/internal/registry"
	"github.com/stdtrack/stdtrack/pkg/middleware"
)

// StandardsHandler serves the standards catalog.
type StandardsHandler struct {
	reg *registry.Service
}

func NewStandardsHandler(reg *registry.Service) *StandardsHandler {
	return &StandardsHandler{reg: reg}
}

func (h *StandardsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/standards", h.List)
	rg.POST("/standards", middleware.RequireChair(), h.Create)
	rg.GET("/standards/:acronym", h.Get)
	rg.DELETE("/standards/:acronym", middleware.RequireChair(), h.Delete)
	rg.GET("/meeting-titles", middleware.RequireAuth(), h.MeetingTitles)
}

func (h *StandardsHandler) List(c *gin.Context) {
	list, err := h.reg.ListStandards(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *StandardsHandler) Create(c *gin.Context) {
	var req struct {
		Acronym string `json:"acronym" binding:"required"`
		Title   string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	std, err := h.reg.CreateStandard(c.Request.Context(), req.Acronym, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, std)
}

// Get returns the standard with its meeting list.
func (h *StandardsHandler) Get(c *gin.Context) {
	std, meetings, err := h.reg.Standard(c.Request.Context(), c.Param("acronym"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standard": std, "meetings": meetings})
}

// Delete removes the standard with all its meetings and payloads.
func (h *StandardsHandler) Delete(c *gin.Context) {
	if err := h.reg.DeleteStandard(c.Request.Context(), c.Param("acronym")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MeetingTitles lists the distinct titles used across all standards.
func (h *StandardsHandler) MeetingTitles(c *gin.Context) {
	titles, err := h.reg.MeetingTitles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"titles": titles})
}
