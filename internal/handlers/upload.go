package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"filevault-backend/internal/filemanager"
	"filevault-backend/internal/models"
)

type UploadHandler struct {
	sessions *filemanager.Sessions
	maxBytes int64
	logger   logr.Logger
}

func NewUploadHandler(sessions *filemanager.Sessions, maxBytes int64, logger logr.Logger) *UploadHandler {
	return &UploadHandler{
		sessions: sessions,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Upload godoc
// @Summary     Upload a file
// @Description Uploads one file under the caller's folder. The category is taken from the
// @Description declared content type (image, audio, video, everything else is a document).
// @Description Existing files are never overwritten. The listing is refreshed afterwards.
// @Tags        files
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       file formData file true "File to upload"
// @Success     201 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /files [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	session := h.sessions.Get(owner)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "file too large"})
			return
		}
		// Let the uploader record the missing selection in its error slot.
		_, err = session.Uploader.Upload(c.Request.Context(), nil, owner)
		writeError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open file", Message: err.Error()})
		return
	}
	defer file.Close()

	contentType, err := declaredType(fileHeader, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	result, err := session.Uploader.Upload(c.Request.Context(), &models.PendingFile{
		Name:        fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Content:     file,
	}, owner)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.UploadResponse{
		Name:     fileHeader.Filename,
		Category: result.Category,
		Path:     result.Path,
		Total:    session.Store.TotalCount(),
		Warnings: warningsOf(result.RefreshErr),
	})
}

// UploadStatus godoc
// @Summary     Upload status
// @Description Reports whether an upload is in flight and the message of the last failed attempt.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UploadStatusResponse
// @Router      /files/upload-status [get]
func (h *UploadHandler) UploadStatus(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	uploader := h.sessions.Get(owner).Uploader
	c.JSON(http.StatusOK, models.UploadStatusResponse{
		IsUploading: uploader.IsUploading(),
		Error:       uploader.LastError(),
	})
}

// declaredType returns the part's Content-Type header, sniffing the content
// when the client sent none.
func declaredType(fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mtype.String(), nil
}
