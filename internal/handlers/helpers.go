package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"filevault-backend/internal/filemanager"
	"filevault-backend/internal/middleware"
	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
)

// ownerID returns the authenticated caller's id, writing an error response
// when it is missing or malformed.
func ownerID(c *gin.Context) (string, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return "", false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return "", false
	}
	return userID.String(), true
}

func toFileResponse(f models.FileDescriptor) models.FileResponse {
	return models.FileResponse{
		FileDescriptor: f,
		SizeLabel:      filemanager.FormatSize(f.Size),
	}
}

func countsOf(store *filemanager.Store) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = store.CountOf(c)
	}
	return counts
}

func warningsOf(err error) []string {
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

// writeError maps flow errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var stageErr *filemanager.StageError

	switch {
	case errors.Is(err, filemanager.ErrNoFile),
		errors.Is(err, filemanager.ErrUnknownCategory),
		errors.Is(err, filemanager.ErrAlreadyArchived):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, filemanager.ErrNoOwner):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrObjectExists):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "file already exists", Message: err.Error()})
	case errors.As(err, &stageErr):
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrObjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "failed to archive file",
			Message: err.Error(),
			Stage:   string(stageErr.Stage),
		})
	case errors.Is(err, storage.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "storage request failed", Message: err.Error()})
	}
}
