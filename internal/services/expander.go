package services

import (
  "context"
  "encoding/json"
  "fmt"
  "sort"
  "sync/atomic"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"

  "github.com/sashaspath/backend/internal/apperr"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/repos"
  "github.com/sashaspath/backend/internal/types"
  "github.com/sashaspath/backend/internal/utils"
)

// CourseContentExpander fills a course skeleton with generated lesson content
// and practice material. Lessons expand concurrently and fail independently: a
// bad lesson is persisted with empty content so the rest of the course stays
// usable, and a later run regenerates only what is still missing.
type CourseContentExpander interface {
  Expand(ctx context.Context, courseID string, level types.Level, onLesson func(done, total int)) error
}

type contentExpander struct {
  log         *logger.Logger
  generator   ContentGenerator
  courses     repos.CourseRepo
  lessons     repos.LessonRepo
  concurrency int
}

const defaultExpandConcurrency = 4

func NewCourseContentExpander(
  log *logger.Logger,
  generator ContentGenerator,
  courses repos.CourseRepo,
  lessons repos.LessonRepo,
) CourseContentExpander {
  return &contentExpander{
    log:         log.With("service", "ContentExpander"),
    generator:   generator,
    courses:     courses,
    lessons:     lessons,
    concurrency: utils.GetEnvAsInt("EXPAND_MAX_CONCURRENCY", defaultExpandConcurrency, log),
  }
}

// expandTarget pairs a lesson row with its progression position so results and
// logs stay in outline order regardless of completion order.
type expandTarget struct {
  lesson       *types.Lesson
  chapterIndex int
}

func (e *contentExpander) Expand(ctx context.Context, courseID string, level types.Level, onLesson func(done, total int)) error {
  course, err := e.courses.GetTreeByID(ctx, nil, courseID)
  if err != nil {
    return apperr.Newf(apperr.KindPersistence, "expand %s: load course: %v", courseID, err)
  }
  if course == nil {
    return apperr.Newf(apperr.KindNotFound, "expand: course %s not found", courseID)
  }

  targets := collectUngenerated(course)
  total := 0
  for _, ch := range course.Chapters {
    total += len(ch.Lessons)
  }
  done := total - len(targets)
  if onLesson != nil {
    onLesson(done, total)
  }
  if len(targets) == 0 {
    e.log.Info("nothing to expand", "course_id", courseID)
    return nil
  }

  e.log.Info("expanding course",
    "course_id", courseID,
    "lessons", len(targets),
    "already_generated", done,
    "concurrency", e.concurrency)

  var doneCount atomic.Int64
  doneCount.Store(int64(done))

  grp, grpCtx := errgroup.WithContext(ctx)
  grp.SetLimit(e.concurrency)
  for _, target := range targets {
    grp.Go(func() error {
      e.expandLesson(grpCtx, course.Title, target, level)
      if onLesson != nil {
        onLesson(int(doneCount.Add(1)), total)
      }
      return nil
    })
  }
  // Tasks never return errors (per-lesson failures are absorbed), so Wait only
  // propagates context cancellation.
  if err := grp.Wait(); err != nil {
    return err
  }
  return ctx.Err()
}

// expandLesson generates content and practice material for one lesson and
// persists the result. On any failure the lesson is written with empty arrays
// and generated=false; the error is logged, never returned.
func (e *contentExpander) expandLesson(ctx context.Context, courseTitle string, target expandTarget, level types.Level) {
  lesson := target.lesson
  topic := fmt.Sprintf("%s — %s", courseTitle, lesson.Title)

  var blocks []types.ContentBlock
  var session *types.PracticeSession

  grp, grpCtx := errgroup.WithContext(ctx)
  grp.Go(func() error {
    var err error
    blocks, err = e.generator.GenerateLessonContent(grpCtx, topic, level)
    return err
  })
  grp.Go(func() error {
    var err error
    session, err = e.generator.GeneratePracticeSession(grpCtx, topic, level)
    return err
  })

  if err := grp.Wait(); err != nil {
    e.log.Error("lesson expansion failed, persisting empty sentinel",
      "lesson_id", lesson.ID,
      "lesson_title", lesson.Title,
      "error", err)
    e.persistLesson(ctx, lesson.ID, nil, nil, nil, false)
    return
  }

  content, err := types.EncodeContentBlocks(blocks)
  if err != nil {
    e.log.Error("lesson content encode failed", "lesson_id", lesson.ID, "error", err)
    e.persistLesson(ctx, lesson.ID, nil, nil, nil, false)
    return
  }
  quiz, _ := json.Marshal(session.Questions)
  exercises, _ := json.Marshal(session.Exercises)

  e.persistLesson(ctx, lesson.ID, content, quiz, exercises, true)
  e.log.Info("lesson expanded",
    "lesson_id", lesson.ID,
    "lesson_title", lesson.Title,
    "blocks", len(blocks))
}

func (e *contentExpander) persistLesson(ctx context.Context, id uuid.UUID, content, quiz, exercises []byte, generated bool) {
  empty := datatypes.JSON([]byte("[]"))
  c, q, x := empty, empty, empty
  if content != nil {
    c = datatypes.JSON(content)
  }
  if quiz != nil {
    q = datatypes.JSON(quiz)
  }
  if exercises != nil {
    x = datatypes.JSON(exercises)
  }
  if err := e.lessons.SetGeneratedContent(ctx, nil, id, c, q, x, generated); err != nil {
    e.log.Error("lesson persist failed", "lesson_id", id, "error", err)
  }
}

// collectUngenerated walks the course tree in progression order and returns
// the lessons that still need content. Lessons with generated content are
// skipped untouched, which makes re-expansion after a partial failure safe.
func collectUngenerated(course *types.Course) []expandTarget {
  chapters := make([]*types.Chapter, len(course.Chapters))
  copy(chapters, course.Chapters)
  sort.Slice(chapters, func(i, j int) bool { return chapters[i].Index < chapters[j].Index })

  var targets []expandTarget
  for _, ch := range chapters {
    lessons := make([]*types.Lesson, len(ch.Lessons))
    copy(lessons, ch.Lessons)
    sort.Slice(lessons, func(i, j int) bool { return lessons[i].Index < lessons[j].Index })
    for _, l := range lessons {
      if l.HasContent() {
        continue
      }
      targets = append(targets, expandTarget{lesson: l, chapterIndex: ch.Index})
    }
  }
  return targets
}
