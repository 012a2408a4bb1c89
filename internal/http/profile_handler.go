package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deepwork-api/internal/auth"
	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
	"deepwork-api/internal/repository"
)

// ProfileHandler mantiene dependencias para endpoints del perfil propio.
type ProfileHandler struct {
	logger     *zap.Logger
	reconciler *auth.Reconciler
	profiles   repository.ProfileRepository
}

func NewProfileHandler(logger *zap.Logger, reconciler *auth.Reconciler, profiles repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{
		logger:     logger,
		reconciler: reconciler,
		profiles:   profiles,
	}
}

// GetMe maneja GET /users/me. Reconcilia el perfil del subject del
// token: si la fila falta se crea con los claims como defaults.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	profile := h.reconciler.Resolve(c.Request.Context(), sessionFromClaims(claims))
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateMe maneja PATCH /users/me.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var upd domain.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.logger.Warn("invalid profile update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if upd.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty update"})
		return
	}

	// La reconciliacion garantiza la fila antes de actualizar.
	h.reconciler.Resolve(c.Request.Context(), sessionFromClaims(claims))

	profile, err := h.profiles.Update(c.Request.Context(), claims.UserID, upd, nowUTC())
	if err != nil {
		h.logger.Error("profile update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func sessionFromClaims(claims identity.Claims) *domain.Session {
	sess := &domain.Session{
		Subject: claims.UserID,
		Email:   claims.Email,
	}
	if claims.FullName != "" {
		name := claims.FullName
		sess.FullName = &name
	}
	if claims.AvatarURL != "" {
		avatar := claims.AvatarURL
		sess.AvatarURL = &avatar
	}
	return sess
}
