package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/sashaspath/backend/internal/clients/redis"
  "github.com/sashaspath/backend/internal/db"
  "github.com/sashaspath/backend/internal/handlers"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/middleware"
  "github.com/sashaspath/backend/internal/repos"
  "github.com/sashaspath/backend/internal/server"
  "github.com/sashaspath/backend/internal/services"
  "github.com/sashaspath/backend/internal/sse"
  "github.com/sashaspath/backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  tokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)
  listenAddr := utils.GetEnv("LISTEN_ADDR", ":8080", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  courseRepo := repos.NewCourseRepo(thePG, log)
  chapterRepo := repos.NewChapterRepo(thePG, log)
  lessonRepo := repos.NewLessonRepo(thePG, log)
  userCourseRepo := repos.NewUserCourseRepo(thePG, log)
  dailyUsageRepo := repos.NewDailyUsageRepo(thePG, log)
  runRepo := repos.NewGenerationRunRepo(thePG, log)

  // Quota counter: redis when configured, postgres otherwise.
  var usageCounter services.UsageCounter
  if utils.GetEnv("REDIS_ADDR", "", log) != "" {
    dayCounter, err := redis.NewDayCounter(log)
    if err != nil {
      log.Error("Could not init redis day counter", "error", err)
      os.Exit(1)
    }
    defer dayCounter.Close()
    usageCounter = dayCounter
  } else {
    usageCounter = repos.NewPostgresUsageCounter(dailyUsageRepo)
  }

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewHub(log)

  // Services
  log.Info("Setting up Services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  generator := services.NewContentGenerator(log, openaiClient)
  quotaGate := services.NewQuotaGate(log, usageCounter)
  outlineBuilder := services.NewCourseOutlineBuilder(log, quotaGate, generator)
  expander := services.NewCourseContentExpander(log, generator, courseRepo, lessonRepo)
  generationService := services.NewCourseGenerationService(
    log,
    thePG,
    outlineBuilder,
    expander,
    courseRepo,
    chapterRepo,
    lessonRepo,
    runRepo,
    sseHub,
  )
  generationService.StartWorker(context.Background())
  authService := services.NewAuthService(log, userRepo, jwtSecretKey, time.Duration(tokenTTL)*time.Second)
  courseService := services.NewCourseService(log, courseRepo, userCourseRepo)
  progressService := services.NewProgressService(log, courseRepo, userCourseRepo, sseHub)

  // Handlers + middleware
  log.Info("Setting up Handlers from main...")
  authHandler := handlers.NewAuthHandler(log, authService)
  courseHandler := handlers.NewCourseHandler(log, courseService)
  generationHandler := handlers.NewGenerationHandler(log, generationService)
  progressHandler := handlers.NewProgressHandler(log, progressService)
  quotaHandler := handlers.NewQuotaHandler(log, quotaGate)
  sseHandler := handlers.NewSSEHandler(log, sseHub)
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:       authHandler,
    AuthMiddleware:    authMiddleware,
    CourseHandler:     courseHandler,
    GenerationHandler: generationHandler,
    ProgressHandler:   progressHandler,
    QuotaHandler:      quotaHandler,
    SSEHandler:        sseHandler,
  })

  log.Info("Starting server", "addr", listenAddr)
  if err := router.Run(listenAddr); err != nil {
    log.Error("Server exited", "error", err)
    os.Exit(1)
  }
}
