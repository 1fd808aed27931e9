package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"filevault-backend/internal/filemanager"
	"filevault-backend/internal/models"
)

type FilesHandler struct {
	sessions *filemanager.Sessions
	logger   logr.Logger
}

func NewFilesHandler(sessions *filemanager.Sessions, logger logr.Logger) *FilesHandler {
	return &FilesHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ListFiles godoc
// @Summary     List files by category
// @Description Returns the caller's files grouped by category with per-category counts and the total.
// @Description The listing is refreshed from storage on first use or when refresh=true.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       refresh query bool false "Re-list every category from storage"
// @Success     200 {object} models.FilesResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /files [get]
func (h *FilesHandler) ListFiles(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	session := h.sessions.Get(owner)

	var refreshErr error
	if !session.Store.Loaded() || c.Query("refresh") == "true" {
		refreshErr = session.Store.Refresh(c.Request.Context(), owner)
	}

	snapshot := session.Store.Snapshot()
	categories := make(map[models.Category][]models.FileResponse, len(snapshot))
	for category, files := range snapshot {
		responses := make([]models.FileResponse, len(files))
		for i, f := range files {
			responses[i] = toFileResponse(f)
		}
		categories[category] = responses
	}

	c.JSON(http.StatusOK, models.FilesResponse{
		Categories: categories,
		Counts:     countsOf(session.Store),
		Total:      session.Store.TotalCount(),
		Loading:    session.Store.Loading(),
		Warnings:   warningsOf(refreshErr),
	})
}

// GetCounts godoc
// @Summary     File counts
// @Description Returns the number of files per category and in total, as currently loaded.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.CountsResponse
// @Router      /files/counts [get]
func (h *FilesHandler) GetCounts(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	store := h.sessions.Get(owner).Store
	c.JSON(http.StatusOK, models.CountsResponse{
		Counts: countsOf(store),
		Total:  store.TotalCount(),
	})
}

// GetFile godoc
// @Summary     Preview a file
// @Description Returns a single file descriptor, including its public URL, for preview.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       category path string true "Category"
// @Param       name     path string true "File name"
// @Success     200 {object} models.FileResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /files/{category}/{name} [get]
func (h *FilesHandler) GetFile(c *gin.Context) {
	_, file, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toFileResponse(file))
}

// ArchiveFile godoc
// @Summary     Archive a file
// @Description Copies the file into the archived category and removes the original.
// @Description If removing the original fails the file is present in both categories in storage
// @Description while the listing still shows it under its original category until the next refresh.
// @Tags        files
// @Produce     json
// @Security    Bearer
// @Param       category path string true "Source category"
// @Param       name     path string true "File name"
// @Success     200 {object} models.ArchiveResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /files/{category}/{name}/archive [post]
func (h *FilesHandler) ArchiveFile(c *gin.Context) {
	session, file, ok := h.lookup(c)
	if !ok {
		return
	}

	archived, err := session.Archiver.Archive(c.Request.Context(), file, session.OwnerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ArchiveResponse{File: toFileResponse(*archived)})
}

// DeleteFile godoc
// @Summary     Delete a file
// @Description Removes the file from storage and from the listing.
// @Tags        files
// @Security    Bearer
// @Param       category path string true "Category"
// @Param       name     path string true "File name"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /files/{category}/{name} [delete]
func (h *FilesHandler) DeleteFile(c *gin.Context) {
	session, file, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := session.Archiver.Delete(c.Request.Context(), file, session.OwnerID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// lookup resolves the :category/:name route parameters against the caller's
// loaded listing.
func (h *FilesHandler) lookup(c *gin.Context) (*filemanager.Session, models.FileDescriptor, bool) {
	owner, ok := ownerID(c)
	if !ok {
		return nil, models.FileDescriptor{}, false
	}

	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid category"})
		return nil, models.FileDescriptor{}, false
	}

	session := h.sessions.Get(owner)
	if !session.Store.Loaded() {
		if err := session.Store.Refresh(c.Request.Context(), owner); err != nil {
			h.logger.Error(err, "refresh before lookup was partial", "owner", owner)
		}
	}

	file, found := session.Store.Find(category, c.Param("name"))
	if !found {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
		return nil, models.FileDescriptor{}, false
	}
	return session, file, true
}
