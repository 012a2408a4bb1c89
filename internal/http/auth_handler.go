package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deepwork-api/internal/auth"
	"deepwork-api/internal/domain"
	"deepwork-api/internal/identity"
)

// AuthHandler mantiene dependencias para endpoints de autenticacion.
type AuthHandler struct {
	logger      *zap.Logger
	accountServ *identity.AccountService
	tokenServ   *identity.TokenService
	reconciler  *auth.Reconciler
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, accountServ *identity.AccountService, tokenServ *identity.TokenService, reconciler *auth.Reconciler) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		accountServ: accountServ,
		tokenServ:   tokenServ,
		reconciler:  reconciler,
	}
}

// SignUp maneja POST /auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.accountServ.SignUp(c.Request.Context(), identity.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, identity.ErrInvalidEmail), errors.Is(err, identity.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("signup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign up"})
		}
		return
	}

	sess, profile, err := h.openSession(c, account)
	if err != nil {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": profile, "session": sess})
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.accountServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		return
	}

	sess, profile, err := h.openSession(c, account)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile, "session": sess})
}

// RefreshToken maneja POST /auth/refresh.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.tokenServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	sess, err := h.tokenServ.RefreshSession(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.tokenServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	_ = h.tokenServ.RevokeRefresh(req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// ResetPassword maneja POST /auth/reset-password. Responde 200 aunque
// el email no este registrado.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.accountServ.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, identity.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reset password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset_sent"})
}

// ConfirmReset maneja POST /auth/reset-password/confirm.
func (h *AuthHandler) ConfirmReset(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset confirm request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.accountServ.ConfirmPasswordReset(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(err, identity.ErrResetNotRequested),
			errors.Is(err, identity.ErrResetExpired),
			errors.Is(err, identity.ErrResetInvalid),
			errors.Is(err, identity.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("reset confirm failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm reset"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}

// openSession emite la sesion para la cuenta y reconcilia el Profile,
// de modo que toda sesion respondida tiene su fila en users.
func (h *AuthHandler) openSession(c *gin.Context, account domain.Account) (domain.Session, domain.Profile, error) {
	if h.tokenServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return domain.Session{}, domain.Profile{}, errors.New("jwt not configured")
	}
	sess, err := h.tokenServ.IssueSession(account)
	if err != nil {
		h.logger.Error("issue session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return domain.Session{}, domain.Profile{}, err
	}
	profile := h.reconciler.Resolve(c.Request.Context(), &sess)
	return sess, profile, nil
}
