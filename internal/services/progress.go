package services

import (
  "context"
  "sort"

  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/apperr"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/repos"
  "github.com/sashaspath/backend/internal/sse"
  "github.com/sashaspath/backend/internal/types"
)

type LessonStatus string

const (
  LessonLocked   LessonStatus = "locked"
  LessonUnlocked LessonStatus = "unlocked"
  LessonComplete LessonStatus = "complete"
)

type LessonState struct {
  LessonID uuid.UUID    `json:"lesson_id"`
  Title    string       `json:"title"`
  Position int          `json:"position"`
  Status   LessonStatus `json:"status"`
}

// FlattenLessons walks chapters by chapter index, lessons by lesson index,
// into the single progression sequence all unlock rules are defined over.
func FlattenLessons(chapters []*types.Chapter) []*types.Lesson {
  sorted := make([]*types.Chapter, len(chapters))
  copy(sorted, chapters)
  sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

  var flat []*types.Lesson
  for _, ch := range sorted {
    lessons := make([]*types.Lesson, len(ch.Lessons))
    copy(lessons, ch.Lessons)
    sort.Slice(lessons, func(i, j int) bool { return lessons[i].Index < lessons[j].Index })
    flat = append(flat, lessons...)
  }
  return flat
}

// LessonStates derives per-lesson status from the completed set. The first
// lesson is never locked; every other lesson unlocks exactly when its
// predecessor in the flattened sequence is complete.
func LessonStates(chapters []*types.Chapter, completed map[uuid.UUID]bool) []LessonState {
  flat := FlattenLessons(chapters)
  states := make([]LessonState, 0, len(flat))
  for i, lesson := range flat {
    status := LessonLocked
    switch {
    case completed[lesson.ID]:
      status = LessonComplete
    case i == 0 || completed[flat[i-1].ID]:
      status = LessonUnlocked
    }
    states = append(states, LessonState{
      LessonID: lesson.ID,
      Title:    lesson.Title,
      Position: i,
      Status:   status,
    })
  }
  return states
}

// ProgressPercent is completed/total, floored. An empty course is 0, not a
// division error.
func ProgressPercent(chapters []*types.Chapter, completed map[uuid.UUID]bool) int {
  flat := FlattenLessons(chapters)
  if len(flat) == 0 {
    return 0
  }
  done := 0
  for _, lesson := range flat {
    if completed[lesson.ID] {
      done++
    }
  }
  return done * 100 / len(flat)
}

// NextLesson returns the lesson following afterID in the progression sequence,
// or ok=false when afterID is the final lesson (or unknown).
func NextLesson(chapters []*types.Chapter, afterID uuid.UUID) (uuid.UUID, bool) {
  flat := FlattenLessons(chapters)
  for i, lesson := range flat {
    if lesson.ID == afterID {
      if i+1 < len(flat) {
        return flat[i+1].ID, true
      }
      return uuid.Nil, false
    }
  }
  return uuid.Nil, false
}

type CourseProgress struct {
  CourseID string        `json:"course_id"`
  Percent  int           `json:"percent"`
  Lessons  []LessonState `json:"lessons"`
}

type CompletionResult struct {
  CourseID     string     `json:"course_id"`
  LessonID     uuid.UUID  `json:"lesson_id"`
  Percent      int        `json:"percent"`
  NextLessonID *uuid.UUID `json:"next_lesson_id,omitempty"`
  CourseDone   bool       `json:"course_done"`
}

type ProgressService interface {
  GetProgress(ctx context.Context, userID uuid.UUID, courseID string) (*CourseProgress, error)
  // CompleteLesson marks the lesson complete for the user. Idempotent:
  // completing an already-complete lesson changes nothing and reports the
  // same result.
  CompleteLesson(ctx context.Context, userID uuid.UUID, courseID string, lessonID uuid.UUID) (*CompletionResult, error)
}

type progressService struct {
  log         *logger.Logger
  courses     repos.CourseRepo
  userCourses repos.UserCourseRepo
  hub         *sse.Hub
}

func NewProgressService(log *logger.Logger, courses repos.CourseRepo, userCourses repos.UserCourseRepo, hub *sse.Hub) ProgressService {
  return &progressService{
    log:         log.With("service", "ProgressService"),
    courses:     courses,
    userCourses: userCourses,
    hub:         hub,
  }
}

func (s *progressService) GetProgress(ctx context.Context, userID uuid.UUID, courseID string) (*CourseProgress, error) {
  course, err := s.courses.GetTreeByID(ctx, nil, courseID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "get progress: %v", err)
  }
  if course == nil {
    return nil, apperr.Newf(apperr.KindNotFound, "course %s not found", courseID)
  }

  enrollment, err := s.userCourses.GetByUserAndCourse(ctx, nil, userID, courseID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "get progress: %v", err)
  }
  completed := enrollment.CompletedSet() // nil enrollment decodes to empty set

  return &CourseProgress{
    CourseID: courseID,
    Percent:  ProgressPercent(course.Chapters, completed),
    Lessons:  LessonStates(course.Chapters, completed),
  }, nil
}

func (s *progressService) CompleteLesson(ctx context.Context, userID uuid.UUID, courseID string, lessonID uuid.UUID) (*CompletionResult, error) {
  course, err := s.courses.GetTreeByID(ctx, nil, courseID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "complete lesson: %v", err)
  }
  if course == nil {
    return nil, apperr.Newf(apperr.KindNotFound, "course %s not found", courseID)
  }
  if !lessonInCourse(course.Chapters, lessonID) {
    return nil, apperr.Newf(apperr.KindNotFound, "lesson %s not in course %s", lessonID, courseID)
  }

  if _, err := s.userCourses.EnsureEnrollment(ctx, nil, userID, courseID); err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "complete lesson: %v", err)
  }
  enrollment, err := s.userCourses.AddCompletedLesson(ctx, nil, userID, courseID, lessonID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "complete lesson: %v", err)
  }
  completed := enrollment.CompletedSet()

  result := &CompletionResult{
    CourseID: courseID,
    LessonID: lessonID,
    Percent:  ProgressPercent(course.Chapters, completed),
  }
  if next, ok := NextLesson(course.Chapters, lessonID); ok {
    result.NextLessonID = &next
  } else {
    result.CourseDone = result.Percent == 100
  }

  s.log.Info("lesson completed",
    "user_id", userID,
    "course_id", courseID,
    "lesson_id", lessonID,
    "percent", result.Percent)
  s.hub.Broadcast(sse.Message{
    Channel: courseChannel(courseID),
    Event:   sse.EventLessonCompleted,
    Data:    result,
  })
  return result, nil
}

func lessonInCourse(chapters []*types.Chapter, lessonID uuid.UUID) bool {
  for _, ch := range chapters {
    for _, l := range ch.Lessons {
      if l.ID == lessonID {
        return true
      }
    }
  }
  return false
}
