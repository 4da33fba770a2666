package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/requestdata"
  "github.com/sashaspath/backend/internal/services"
)

type ProgressHandler struct {
  log      *logger.Logger
  progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
  return &ProgressHandler{
    log:      log.With("handler", "ProgressHandler"),
    progress: progress,
  }
}

func (h *ProgressHandler) GetProgress(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  result, err := h.progress.GetProgress(c.Request.Context(), rd.UserID, c.Param("id"))
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, result)
}

func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  lessonID, err := uuid.Parse(c.Param("lessonID"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  result, err := h.progress.CompleteLesson(c.Request.Context(), rd.UserID, c.Param("id"), lessonID)
  if err != nil {
    h.log.Error("CompleteLesson failed",
      "user_id", rd.UserID,
      "course_id", c.Param("id"),
      "lesson_id", lessonID,
      "error", err)
    RespondAppError(c, err)
    return
  }
  RespondOK(c, result)
}
