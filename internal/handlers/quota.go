package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/services"
)

type QuotaHandler struct {
  log   *logger.Logger
  quota services.QuotaGate
}

func NewQuotaHandler(log *logger.Logger, quota services.QuotaGate) *QuotaHandler {
  return &QuotaHandler{
    log:   log.With("handler", "QuotaHandler"),
    quota: quota,
  }
}

func (h *QuotaHandler) GetStatus(c *gin.Context) {
  status, err := h.quota.Status(c.Request.Context())
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, status)
}
