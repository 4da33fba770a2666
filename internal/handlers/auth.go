package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/services"
)

type AuthHandler struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
  return &AuthHandler{
    log:         log.With("handler", "AuthHandler"),
    authService: authService,
  }
}

type loginRequest struct {
  Email       string `json:"email" binding:"required,email"`
  DisplayName string `json:"display_name"`
}

// Login issues a token for an email, creating the user on first sight. The
// register route shares this behavior; the split exists for the client's
// routing, not for different semantics.
func (h *AuthHandler) Login(c *gin.Context) {
  var req loginRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.DisplayName)
  if err != nil {
    h.log.Error("login failed", "email", req.Email, "error", err)
    RespondError(c, http.StatusUnauthorized, "login_failed", err)
    return
  }
  RespondOK(c, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Register(c *gin.Context) {
  h.Login(c)
}
