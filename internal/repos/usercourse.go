package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

type UserCourseRepo interface {
  GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string) (*types.UserCourse, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserCourse, error)
  // EnsureEnrollment creates the enrollment row on first use; repeated calls
  // return the existing row unchanged (StartedAt is set once).
  EnsureEnrollment(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string) (*types.UserCourse, error)
  // AddCompletedLesson merges lessonID into the completed set under a row
  // lock, so concurrent completions of different lessons never lose an entry.
  // Adding an already-present id is a no-op.
  AddCompletedLesson(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string, lessonID uuid.UUID) (*types.UserCourse, error)
}

type userCourseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserCourseRepo(db *gorm.DB, baseLog *logger.Logger) UserCourseRepo {
  return &userCourseRepo{db: db, log: baseLog.With("repo", "UserCourseRepo")}
}

func (r *userCourseRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string) (*types.UserCourse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if userID == uuid.Nil || courseID == "" {
    return nil, nil
  }
  var row types.UserCourse
  err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", userID, courseID).
    First(&row).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &row, nil
}

func (r *userCourseRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserCourse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.UserCourse
  if userID == uuid.Nil {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("started_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *userCourseRepo) EnsureEnrollment(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string) (*types.UserCourse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  now := time.Now()
  row := &types.UserCourse{
    ID:               uuid.New(),
    UserID:           userID,
    CourseID:         courseID,
    StartedAt:        now,
    CompletedLessons: types.EncodeCompletedSet(nil),
    CreatedAt:        now,
    UpdatedAt:        now,
  }
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", userID, courseID).
    FirstOrCreate(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *userCourseRepo) AddCompletedLesson(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string, lessonID uuid.UUID) (*types.UserCourse, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var out *types.UserCourse
  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    var row types.UserCourse
    err := txx.
      Clauses(clause.Locking{Strength: "UPDATE"}).
      Where("user_id = ? AND course_id = ?", userID, courseID).
      First(&row).Error
    if err != nil {
      return err
    }

    set := row.CompletedSet()
    if set[lessonID] {
      out = &row
      return nil
    }
    set[lessonID] = true

    row.CompletedLessons = types.EncodeCompletedSet(set)
    row.UpdatedAt = time.Now()
    if err := txx.Model(&types.UserCourse{}).
      Where("id = ?", row.ID).
      Updates(map[string]interface{}{
        "completed_lessons": row.CompletedLessons,
        "updated_at":        row.UpdatedAt,
      }).Error; err != nil {
      return err
    }
    out = &row
    return nil
  })
  if err != nil {
    return nil, err
  }
  return out, nil
}
