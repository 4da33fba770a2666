package services

import (
  "context"
  "time"

  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/apperr"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/repos"
  "github.com/sashaspath/backend/internal/types"
)

// UserCourseSummary is a course the user has started, with enrollment data
// folded in for the "my courses" listing.
type UserCourseSummary struct {
  Course    *types.Course `json:"course"`
  StartedAt time.Time     `json:"started_at"`
  Percent   int           `json:"percent"`
}

type CourseService interface {
  // GetCourse returns the full chapter/lesson tree. Lessons with empty
  // content are a valid ungenerated state and are returned as-is.
  GetCourse(ctx context.Context, id string) (*types.Course, error)
  ListHomepageCourses(ctx context.Context) ([]*types.Course, error)
  ListUserCourses(ctx context.Context, userID uuid.UUID) ([]*UserCourseSummary, error)
  StartCourse(ctx context.Context, userID uuid.UUID, courseID string) (*types.UserCourse, error)
  DeleteCourse(ctx context.Context, id string) error
}

type courseService struct {
  log         *logger.Logger
  courses     repos.CourseRepo
  userCourses repos.UserCourseRepo
}

func NewCourseService(log *logger.Logger, courses repos.CourseRepo, userCourses repos.UserCourseRepo) CourseService {
  return &courseService{
    log:         log.With("service", "CourseService"),
    courses:     courses,
    userCourses: userCourses,
  }
}

func (s *courseService) GetCourse(ctx context.Context, id string) (*types.Course, error) {
  course, err := s.courses.GetTreeByID(ctx, nil, id)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "get course: %v", err)
  }
  if course == nil {
    return nil, apperr.Newf(apperr.KindNotFound, "course %s not found", id)
  }
  return course, nil
}

func (s *courseService) ListHomepageCourses(ctx context.Context) ([]*types.Course, error) {
  courses, err := s.courses.ListHomepage(ctx, nil)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "list homepage courses: %v", err)
  }
  return courses, nil
}

func (s *courseService) ListUserCourses(ctx context.Context, userID uuid.UUID) ([]*UserCourseSummary, error) {
  enrollments, err := s.userCourses.GetByUserID(ctx, nil, userID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "list user courses: %v", err)
  }
  if len(enrollments) == 0 {
    return []*UserCourseSummary{}, nil
  }

  ids := make([]string, 0, len(enrollments))
  for _, e := range enrollments {
    ids = append(ids, e.CourseID)
  }
  courses, err := s.courses.ListByIDs(ctx, nil, ids)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "list user courses: %v", err)
  }
  byID := make(map[string]*types.Course, len(courses))
  for _, c := range courses {
    byID[c.ID] = c
  }

  summaries := make([]*UserCourseSummary, 0, len(enrollments))
  for _, e := range enrollments {
    course, ok := byID[e.CourseID]
    if !ok {
      // Enrollment referencing a deleted course; skip rather than 500.
      continue
    }
    summaries = append(summaries, &UserCourseSummary{
      Course:    course,
      StartedAt: e.StartedAt,
      Percent:   ProgressPercent(course.Chapters, e.CompletedSet()),
    })
  }
  return summaries, nil
}

func (s *courseService) StartCourse(ctx context.Context, userID uuid.UUID, courseID string) (*types.UserCourse, error) {
  course, err := s.courses.GetByID(ctx, nil, courseID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "start course: %v", err)
  }
  if course == nil {
    return nil, apperr.Newf(apperr.KindNotFound, "course %s not found", courseID)
  }
  enrollment, err := s.userCourses.EnsureEnrollment(ctx, nil, userID, courseID)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "start course: %v", err)
  }
  return enrollment, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, id string) error {
  course, err := s.courses.GetByID(ctx, nil, id)
  if err != nil {
    return apperr.Newf(apperr.KindPersistence, "delete course: %v", err)
  }
  if course == nil {
    return apperr.Newf(apperr.KindNotFound, "course %s not found", id)
  }
  if err := s.courses.DeleteCascade(ctx, nil, id); err != nil {
    return apperr.Newf(apperr.KindPersistence, "delete course %s: %v", id, err)
  }
  s.log.Info("course deleted", "course_id", id)
  return nil
}
