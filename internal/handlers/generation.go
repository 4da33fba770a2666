package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/requestdata"
  "github.com/sashaspath/backend/internal/services"
  "github.com/sashaspath/backend/internal/types"
)

type GenerationHandler struct {
  log        *logger.Logger
  generation services.CourseGenerationService
}

func NewGenerationHandler(log *logger.Logger, generation services.CourseGenerationService) *GenerationHandler {
  return &GenerationHandler{
    log:        log.With("handler", "GenerationHandler"),
    generation: generation,
  }
}

type createCourseRequest struct {
  Topic string `json:"topic" binding:"required"`
  Level string `json:"level"`
}

func (h *GenerationHandler) CreateCourse(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  var req createCourseRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  level, err := types.ParseLevel(req.Level)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  course, run, err := h.generation.CreateCourse(c.Request.Context(), rd.UserID, req.Topic, level, rd.IsAdmin)
  if err != nil {
    h.log.Error("CreateCourse failed", "user_id", rd.UserID, "topic", req.Topic, "error", err)
    RespondAppError(c, err)
    return
  }
  c.JSON(http.StatusAccepted, gin.H{"course": course, "run": run})
}

func (h *GenerationHandler) GetRunStatus(c *gin.Context) {
  run, err := h.generation.GetRunStatus(c.Request.Context(), c.Param("id"))
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, run)
}
