package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"filevault-backend/internal/filemanager"
	"filevault-backend/internal/middleware"
	"filevault-backend/internal/models"
	"filevault-backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	sessions *filemanager.Sessions
	logger   logr.Logger
}

func NewProfileHandler(profiles *services.ProfileService, sessions *filemanager.Sessions, logger logr.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		sessions: sessions,
		logger:   logger,
	}
}

// GetProfile godoc
// @Summary     Current profile
// @Description Returns the caller's display name from the profile table.
// @Tags        profile
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProfileResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	name, err := h.profiles.DisplayName(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "profile not found"})
			return
		}
		cached := h.profiles.CachedName(identity.ID)
		if cached == "" {
			h.logger.Error(err, "failed to fetch profile", "user", identity.ID)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to fetch profile", Message: err.Error()})
			return
		}
		name = cached
	}

	c.JSON(http.StatusOK, models.ProfileResponse{
		ID:     identity.ID,
		Nombre: name,
		Email:  identity.Email,
	})
}

// Logout godoc
// @Summary     Sign out
// @Description Ends the session at the identity provider and forgets the caller's cached state.
// @Tags        profile
// @Security    Bearer
// @Success     204
// @Failure     500 {object} models.ErrorResponse
// @Router      /logout [post]
func (h *ProfileHandler) Logout(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	if err := h.profiles.Logout(c.Request.Context(), identity, middleware.TokenFrom(c)); err != nil {
		h.logger.Error(err, "sign out failed", "user", identity.ID)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to sign out", Message: err.Error()})
		return
	}

	h.sessions.Drop(identity.ID)
	c.Status(http.StatusNoContent)
}
