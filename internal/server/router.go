package server

import (
  "strings"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/sashaspath/backend/internal/handlers"
  "github.com/sashaspath/backend/internal/middleware"
  "github.com/sashaspath/backend/internal/utils"
)

type RouterConfig struct {
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  CourseHandler     *handlers.CourseHandler
  GenerationHandler *handlers.GenerationHandler
  ProgressHandler   *handlers.ProgressHandler
  QuotaHandler      *handlers.QuotaHandler
  SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  // ===============
  // || Public    ||
  // ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
    api.GET("/courses", cfg.CourseHandler.ListHomepageCourses)
    api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
  }

  // ===============
  // || Protected ||
  // ===============
  protected := router.Group("/api")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Generation
  protected.POST("/courses", cfg.GenerationHandler.CreateCourse)
  protected.GET("/courses/:id/generation", cfg.GenerationHandler.GetRunStatus)
  // Enrollment + progress
  protected.GET("/my/courses", cfg.CourseHandler.ListUserCourses)
  protected.POST("/courses/:id/start", cfg.CourseHandler.StartCourse)
  protected.GET("/courses/:id/progress", cfg.ProgressHandler.GetProgress)
  protected.POST("/courses/:id/lessons/:lessonID/complete", cfg.ProgressHandler.CompleteLesson)
  // Quota
  protected.GET("/quota", cfg.QuotaHandler.GetStatus)
  // SSE
  protected.GET("/sse/stream", cfg.SSEHandler.SSEStream)

  // ===============
  // || Admin     ||
  // ===============
  admin := router.Group("/api")
  admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
  admin.DELETE("/courses/:id", cfg.CourseHandler.DeleteCourse)

  return router
}
