package handlers

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stdtrack/stdtrack/internal/extract"
	"github.com/stdtrack/stdtrack/internal/filestore"
	"github.com/stdtrack/stdtrack/internal/lineage"
	"github.com/stdtrack/stdtrack/pkg/logger"
	"github.com/stdtrack/stdtrack/pkg/metrics"
	"github.com/stdtrack/stdtrack/pkg/middleware"
)

// DocumentsHandler serves document lineage operations within a meeting:
// uploads, tail deletion, status decisions, reordering and memos.
type DocumentsHandler struct {
	engine *lineage.Engine
	files  filestore.Store
}

func NewDocumentsHandler(engine *lineage.Engine, files filestore.Store) *DocumentsHandler {
	return &DocumentsHandler{engine: engine, files: files}
}

func timestampNow() int64 {
	return time.Now().UnixMilli()
}

func (h *DocumentsHandler) Register(rg *gin.RouterGroup) {
	m := rg.Group("/standards/:acronym/meetings/:meeting")
	m.POST("/documents", middleware.RequireAuth(), h.Upload)
	m.DELETE("/documents/:doc", middleware.RequireAuth(), h.Delete)
	m.GET("/documents/:doc/download", h.Download)
	m.PATCH("/proposals/:doc/status", middleware.RequireChair(), h.SetStatus)
	m.PUT("/proposals/order", middleware.RequireChair(), h.Reorder)
	m.GET("/memos", h.Memos)
	m.PUT("/documents/:doc/memo", middleware.RequireAuth(), h.SetMemo)
}

// Upload accepts a multipart payload plus its kind and registers the
// document in the lineage. The payload is stored first; if the lineage
// rejects it the stored object is discarded again.
func (h *DocumentsHandler) Upload(c *gin.Context) {
	acronym, meetingID := c.Param("acronym"), c.Param("meeting")

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	kind := lineage.Kind(c.PostForm("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document kind"})
		return
	}
	parentID := c.PostForm("parentId")
	if kind == lineage.KindRevision && parentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parentId is required for revisions"})
		return
	}

	if err := filestore.ValidateUpload(fh.Filename, fh.Size); err != nil {
		writeError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	payload, err := io.ReadAll(io.LimitReader(f, filestore.MaxUploadSize+1))
	if err != nil {
		writeError(c, err)
		return
	}
	if int64(len(payload)) > filestore.MaxUploadSize {
		writeError(c, filestore.ErrFileTooLarge)
		return
	}

	// Titles and abstracts live in the cover table of Word documents.
	title, abstract := c.PostForm("extractedTitle"), c.PostForm("extractedAbstract")
	if title == "" && strings.EqualFold(path.Ext(fh.Filename), ".docx") {
		info, err := extract.FromDocx(payload)
		if err != nil {
			logger.Debugf("docx extraction failed for %s: %v", fh.Filename, err)
		} else {
			title, abstract = info.Title, info.Abstract
		}
	}

	in := lineage.IngestInput{
		Kind:           kind,
		FileName:       fh.Filename,
		ExtractedTitle: title,
		Abstract:       abstract,
		ParentID:       parentID,
	}
	if id, ok := middleware.GetIdentity(c); ok {
		in.Uploader = id.User
	}

	key := filestore.ObjectKey(acronym, meetingID, string(kind), fh.Filename, timestampNow())
	contentType := fh.Header.Get("Content-Type")
	if err := h.files.Save(c.Request.Context(), key, bytes.NewReader(payload), int64(len(payload)), contentType); err != nil {
		writeError(c, err)
		return
	}
	in.FilePath = key

	doc, err := h.engine.Ingest(c.Request.Context(), acronym, meetingID, in)
	if err != nil {
		// lineage said no; drop the orphaned payload
		if derr := h.files.Delete(c.Request.Context(), key); derr != nil {
			logger.Warnf("failed to remove rejected payload %s: %v", key, derr)
		}
		metrics.LineageOps.WithLabelValues("ingest", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("ingest", "ok").Inc()
	metrics.UploadsTotal.WithLabelValues(string(kind)).Inc()
	c.JSON(http.StatusCreated, doc)
}

// Delete removes a chain tail and its stored payload.
func (h *DocumentsHandler) Delete(c *gin.Context) {
	acronym, meetingID := c.Param("acronym"), c.Param("meeting")
	doc, err := h.engine.Delete(c.Request.Context(), acronym, meetingID, c.Param("doc"))
	if err != nil {
		metrics.LineageOps.WithLabelValues("delete", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("delete", "ok").Inc()
	if doc.FilePath != "" {
		if err := h.files.Delete(c.Request.Context(), doc.FilePath); err != nil {
			logger.Warnf("failed to delete payload %s: %v", doc.FilePath, err)
		}
	}
	c.Status(http.StatusNoContent)
}

// Download streams the stored payload back under its original filename.
func (h *DocumentsHandler) Download(c *gin.Context) {
	acronym, meetingID := c.Param("acronym"), c.Param("meeting")
	snap, err := h.engine.Snapshot(c.Request.Context(), acronym, meetingID)
	if err != nil {
		writeError(c, err)
		return
	}
	doc := snap.Find(c.Param("doc"))
	if doc == nil {
		writeError(c, lineage.ErrDocumentNotFound)
		return
	}
	r, err := h.files.Open(c.Request.Context(), doc.FilePath)
	if err != nil {
		writeError(c, err)
		return
	}
	defer r.Close()
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, r); err != nil {
		logger.Warnf("download aborted for %s: %v", doc.FilePath, err)
	}
}

// SetStatus applies a decision to a proposal and its whole chain.
func (h *DocumentsHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := lineage.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	if err := h.engine.SetStatus(c.Request.Context(), c.Param("acronym"), c.Param("meeting"), c.Param("doc"), status); err != nil {
		metrics.LineageOps.WithLabelValues("status", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("status", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Reorder replaces the proposal order with the supplied permutation.
func (h *DocumentsHandler) Reorder(c *gin.Context) {
	var req struct {
		Order []string `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.Reorder(c.Request.Context(), c.Param("acronym"), c.Param("meeting"), req.Order); err != nil {
		metrics.LineageOps.WithLabelValues("reorder", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("reorder", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"order": req.Order})
}

// Memos returns the meeting's memo map.
func (h *DocumentsHandler) Memos(c *gin.Context) {
	memos, err := h.engine.Memos(c.Request.Context(), c.Param("acronym"), c.Param("meeting"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memos": memos})
}

// SetMemo stores or clears a document memo. Empty text clears.
func (h *DocumentsHandler) SetMemo(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.SetMemo(c.Request.Context(), c.Param("acronym"), c.Param("meeting"), c.Param("doc"), req.Text); err != nil {
		metrics.LineageOps.WithLabelValues("memo", "error").Inc()
		writeError(c, err)
		return
	}
	metrics.LineageOps.WithLabelValues("memo", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"text": req.Text})
}
