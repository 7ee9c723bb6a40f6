package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stdtrack/stdtrack/internal/filestore"
	"github.com/stdtrack/stdtrack/internal/lineage"
	"github.com/stdtrack/stdtrack/internal/registry"
	"github.com/stdtrack/stdtrack/internal/sessions"
	"github.com/stdtrack/stdtrack/pkg/logger"
)

// writeError maps domain sentinels onto HTTP statuses. Unknown errors
// become 500s with the detail kept out of the response body.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrStandardNotFound),
		errors.Is(err, lineage.ErrMeetingNotFound),
		errors.Is(err, lineage.ErrDocumentNotFound),
		errors.Is(err, lineage.ErrProposalNotFound),
		errors.Is(err, filestore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrStandardExists),
		errors.Is(err, lineage.ErrMeetingCompleted),
		errors.Is(err, lineage.ErrNotDeletable),
		errors.Is(err, lineage.ErrProposalAccepted),
		errors.Is(err, lineage.ErrSlotOccupied):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, lineage.ErrInvalidReorder),
		errors.Is(err, lineage.ErrResultDocumentRequired),
		errors.Is(err, filestore.ErrUnsupportedFileType),
		errors.Is(err, sessions.ErrUsernameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, filestore.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, sessions.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logger.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
