// api/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/middleware"
	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/internal/logger"
	"github.com/Annany2002/taxacurator/internal/session"
)

var (
	customLog = logger.NewLogger()
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	Sessions *session.Manager
}

// NewAuthHandler creates a new AuthHandler with dependencies.
func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{Sessions: sessions}
}

// Login handles login requests and acquires a session on success.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Login binding error: %v", err)
		_ = c.Error(err)
		return
	}

	sess, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		customLog.Warnf("Login failed for email %s: %v", req.Email, err)
		_ = c.Error(err)
		return
	}

	customLog.Printf("Curator %s signed in", sess.Email)
	c.JSON(http.StatusOK, sessionResponse("Login successful", sess))
}

// Refresh issues a new token for the current session and revokes the old one.
func (h *AuthHandler) Refresh(c *gin.Context) {
	sess, err := h.Sessions.Refresh(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		customLog.Warnf("Session refresh failed: %v", err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse("Session refreshed", sess))
}

// Logout clears the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	h.Sessions.Clear(sess)
	customLog.Printf("Curator %s signed out", sess.ActorDisplay())
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Me returns the curator of the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		_ = c.Error(session.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, models.SessionUser{UserID: sess.UserID, Email: sess.Email, DisplayName: sess.DisplayName})
}

func sessionResponse(message string, sess *session.Session) models.LoginResponse {
	return models.LoginResponse{
		Message:   message,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      models.SessionUser{UserID: sess.UserID, Email: sess.Email, DisplayName: sess.DisplayName},
	}
}
