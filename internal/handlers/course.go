package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/requestdata"
  "github.com/sashaspath/backend/internal/services"
)

type CourseHandler struct {
  log           *logger.Logger
  courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
  return &CourseHandler{
    log:           log.With("handler", "CourseHandler"),
    courseService: courseService,
  }
}

func (h *CourseHandler) ListHomepageCourses(c *gin.Context) {
  courses, err := h.courseService.ListHomepageCourses(c.Request.Context())
  if err != nil {
    h.log.Error("ListHomepageCourses failed", "error", err)
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"courses": courses})
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
  course, err := h.courseService.GetCourse(c.Request.Context(), c.Param("id"))
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, course)
}

func (h *CourseHandler) ListUserCourses(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  courses, err := h.courseService.ListUserCourses(c.Request.Context(), rd.UserID)
  if err != nil {
    h.log.Error("ListUserCourses failed", "error", err, "user_id", rd.UserID)
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"courses": courses})
}

func (h *CourseHandler) StartCourse(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  enrollment, err := h.courseService.StartCourse(c.Request.Context(), rd.UserID, c.Param("id"))
  if err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, enrollment)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
  if err := h.courseService.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
    RespondAppError(c, err)
    return
  }
  RespondOK(c, gin.H{"deleted": c.Param("id")})
}
