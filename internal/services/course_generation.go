package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/sashaspath/backend/internal/apperr"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/repos"
  "github.com/sashaspath/backend/internal/sse"
  "github.com/sashaspath/backend/internal/types"
  "github.com/sashaspath/backend/internal/utils"
)

// CourseGenerationService owns the create-then-expand workflow. CreateCourse
// is the synchronous half: quota, outline, skeleton persisted, run enqueued.
// The worker loop is the asynchronous half: it claims runnable runs and fills
// in lesson content, surviving process crashes via run heartbeats.
type CourseGenerationService interface {
  CreateCourse(ctx context.Context, userID uuid.UUID, topic string, level types.Level, admin bool) (*types.Course, *types.CourseGenerationRun, error)
  GetRunStatus(ctx context.Context, courseID string) (*types.CourseGenerationRun, error)
  StartWorker(ctx context.Context)
}

type courseGenerationService struct {
  log      *logger.Logger
  db       *gorm.DB
  builder  CourseOutlineBuilder
  expander CourseContentExpander
  courses  repos.CourseRepo
  chapters repos.ChapterRepo
  lessons  repos.LessonRepo
  runs     repos.GenerationRunRepo
  hub      *sse.Hub

  pollInterval time.Duration
  maxAttempts  int
}

func NewCourseGenerationService(
  log *logger.Logger,
  db *gorm.DB,
  builder CourseOutlineBuilder,
  expander CourseContentExpander,
  courses repos.CourseRepo,
  chapters repos.ChapterRepo,
  lessons repos.LessonRepo,
  runs repos.GenerationRunRepo,
  hub *sse.Hub,
) CourseGenerationService {
  return &courseGenerationService{
    log:          log.With("service", "CourseGenerationService"),
    db:           db,
    builder:      builder,
    expander:     expander,
    courses:      courses,
    chapters:     chapters,
    lessons:      lessons,
    runs:         runs,
    hub:          hub,
    pollInterval: time.Duration(utils.GetEnvAsInt("GENERATION_POLL_INTERVAL_SECONDS", 3, log)) * time.Second,
    maxAttempts:  utils.GetEnvAsInt("GENERATION_MAX_ATTEMPTS", 3, log),
  }
}

func courseChannel(courseID string) string { return "course:" + courseID }

// CreateCourse builds the outline (charging quota) and persists the full
// skeleton plus a queued run in one transaction. On any failure nothing is
// persisted; the only side effect of a failed creation is the consumed quota
// unit.
func (s *courseGenerationService) CreateCourse(ctx context.Context, userID uuid.UUID, topic string, level types.Level, admin bool) (*types.Course, *types.CourseGenerationRun, error) {
  outline, err := s.builder.Build(ctx, topic, admin)
  if err != nil {
    return nil, nil, err
  }

  existing, err := s.courses.GetByID(ctx, nil, outline.ID)
  if err != nil {
    return nil, nil, apperr.Newf(apperr.KindPersistence, "create course: %v", err)
  }
  if existing != nil {
    // Same-title collision: suffix rather than clobber an existing course.
    outline.ID = fmt.Sprintf("%s-%s", outline.ID, uuid.NewString()[:8])
  }

  emptyJSON := datatypes.JSON([]byte("[]"))
  course := &types.Course{
    ID:     outline.ID,
    Title:  outline.Title,
    Status: types.CourseStatusGenerating,
  }
  run := &types.CourseGenerationRun{
    ID:       uuid.New(),
    CourseID: course.ID,
    UserID:   userID,
    Level:    level,
    Status:   types.RunStatusQueued,
    Stage:    types.RunStageOutline,
  }

  err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.courses.Create(ctx, tx, []*types.Course{course}); err != nil {
      return err
    }
    for ci, och := range outline.Chapters {
      chapter := &types.Chapter{
        ID:       och.ID,
        CourseID: course.ID,
        Index:    ci,
        Title:    och.Title,
      }
      if _, err := s.chapters.Create(ctx, tx, []*types.Chapter{chapter}); err != nil {
        return err
      }
      rows := make([]*types.Lesson, 0, len(och.Lessons))
      for li, ol := range och.Lessons {
        rows = append(rows, &types.Lesson{
          ID:        ol.ID,
          ChapterID: chapter.ID,
          Index:     li,
          Title:     ol.Title,
          Content:   emptyJSON,
          Quiz:      emptyJSON,
          Exercises: emptyJSON,
        })
      }
      if _, err := s.lessons.Create(ctx, tx, rows); err != nil {
        return err
      }
    }
    _, err := s.runs.Create(ctx, tx, []*types.CourseGenerationRun{run})
    return err
  })
  if err != nil {
    return nil, nil, apperr.Newf(apperr.KindPersistence, "create course %s: %v", course.ID, err)
  }

  s.log.Info("course created",
    "course_id", course.ID,
    "user_id", userID,
    "chapters", len(outline.Chapters),
    "lessons", outline.LessonCount())
  s.hub.Broadcast(sse.Message{
    Channel: courseChannel(course.ID),
    Event:   sse.EventCourseCreated,
    Data:    map[string]any{"course_id": course.ID, "run_id": run.ID},
  })
  return course, run, nil
}

func (s *courseGenerationService) GetRunStatus(ctx context.Context, courseID string) (*types.CourseGenerationRun, error) {
  run, err := s.runs.GetLatestByCourseID(ctx, nil, courseID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "run status: %v", err)
  }
  if run == nil {
    return nil, apperr.Newf(apperr.KindNotFound, "no generation run for course %s", courseID)
  }
  return run, nil
}

// StartWorker runs the claim/expand loop until ctx is cancelled. The loop
// context belongs to the process, not to any HTTP request: a client that
// abandons the page does not cancel its course's generation.
func (s *courseGenerationService) StartWorker(ctx context.Context) {
  go func() {
    ticker := time.NewTicker(s.pollInterval)
    defer ticker.Stop()
    s.log.Info("generation worker started", "poll_interval", s.pollInterval)
    for {
      select {
      case <-ticker.C:
        s.drainRunnable(ctx)
      case <-ctx.Done():
        s.log.Info("generation worker stopped")
        return
      }
    }
  }()
}

func (s *courseGenerationService) drainRunnable(ctx context.Context) {
  for {
    run, err := s.runs.ClaimNextRunnable(ctx, nil, s.maxAttempts, s.pollInterval, 2*time.Minute)
    if err != nil {
      s.log.Error("claim runnable run failed", "error", err)
      return
    }
    if run == nil {
      return
    }
    s.processRun(ctx, run)
  }
}

func (s *courseGenerationService) processRun(ctx context.Context, run *types.CourseGenerationRun) {
  log := s.log.With("run_id", run.ID, "course_id", run.CourseID, "attempt", run.Attempts)
  log.Info("processing generation run")

  hbCtx, stopHeartbeat := context.WithCancel(ctx)
  defer stopHeartbeat()
  go s.heartbeatLoop(hbCtx, run.ID)

  _ = s.runs.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
    "stage": types.RunStageLessons,
  })

  onLesson := func(done, total int) {
    progress := 0
    if total > 0 {
      progress = done * 100 / total
    }
    _ = s.runs.UpdateFields(ctx, nil, run.ID, map[string]interface{}{"progress": progress})
    s.hub.Broadcast(sse.Message{
      Channel: courseChannel(run.CourseID),
      Event:   sse.EventGenerationProgress,
      Data:    map[string]any{"done": done, "total": total, "progress": progress},
    })
  }

  if err := s.expander.Expand(ctx, run.CourseID, run.Level, onLesson); err != nil {
    now := time.Now()
    log.Error("generation run failed", "error", err)
    _ = s.runs.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
      "status":        types.RunStatusFailed,
      "error":         err.Error(),
      "last_error_at": &now,
      "locked_at":     nil,
    })
    s.hub.Broadcast(sse.Message{
      Channel: courseChannel(run.CourseID),
      Event:   sse.EventGenerationFailed,
      Data:    map[string]any{"error": err.Error(), "attempt": run.Attempts},
    })
    return
  }

  // Per-lesson failures are absorbed by the expander, so the run itself
  // succeeds and the course is served with whatever lessons made it.
  if err := s.courses.UpdateFields(ctx, nil, run.CourseID, map[string]interface{}{
    "status": types.CourseStatusReady,
  }); err != nil {
    log.Error("course status update failed", "error", err)
  }
  _ = s.runs.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
    "status":    types.RunStatusSucceeded,
    "stage":     types.RunStageDone,
    "progress":  100,
    "error":     "",
    "locked_at": nil,
  })
  log.Info("generation run succeeded")
  s.hub.Broadcast(sse.Message{
    Channel: courseChannel(run.CourseID),
    Event:   sse.EventGenerationDone,
    Data:    map[string]any{"course_id": run.CourseID},
  })
}

func (s *courseGenerationService) heartbeatLoop(ctx context.Context, runID uuid.UUID) {
  ticker := time.NewTicker(30 * time.Second)
  defer ticker.Stop()
  for {
    select {
    case <-ticker.C:
      if err := s.runs.Heartbeat(ctx, nil, runID); err != nil {
        s.log.Warn("run heartbeat failed", "run_id", runID, "error", err)
      }
    case <-ctx.Done():
      return
    }
  }
}
