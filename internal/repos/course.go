package repos

import (
  "context"
  "errors"

  "gorm.io/gorm"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

type CourseRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error)
  GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Course, error)
  // GetTreeByID loads the course with chapters and lessons in progression order.
  GetTreeByID(ctx context.Context, tx *gorm.DB, id string) (*types.Course, error)
  ListHomepage(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
  ListByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Course, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error
  // DeleteCascade removes the course, its chapters/lessons, the enrollments
  // referencing it, and its generation runs, in one transaction.
  DeleteCascade(ctx context.Context, tx *gorm.DB, id string) error
}

type courseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
  return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.Course{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == "" {
    return nil, nil
  }
  var course types.Course
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&course).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &course, nil
}

func (r *courseRepo) GetTreeByID(ctx context.Context, tx *gorm.DB, id string) (*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == "" {
    return nil, nil
  }
  var course types.Course
  err := transaction.WithContext(ctx).
    Preload("Chapters", func(db *gorm.DB) *gorm.DB {
      return db.Order("chapter.index ASC")
    }).
    Preload("Chapters.Lessons", func(db *gorm.DB) *gorm.DB {
      return db.Order("lesson.index ASC")
    }).
    Where("id = ?", id).
    First(&course).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &course, nil
}

func (r *courseRepo) ListHomepage(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Course
  if err := transaction.WithContext(ctx).
    Where("show_on_homepage = ?", true).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Course
  if len(ids) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("index ASC") }).
    Preload("Chapters.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("index ASC") }).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == "" || len(updates) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Model(&types.Course{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (r *courseRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == "" {
    return nil
  }
  return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    var chapterIDs []string
    if err := txx.Model(&types.Chapter{}).
      Where("course_id = ?", id).
      Pluck("id", &chapterIDs).Error; err != nil {
      return err
    }
    if len(chapterIDs) > 0 {
      if err := txx.Where("chapter_id IN ?", chapterIDs).Delete(&types.Lesson{}).Error; err != nil {
        return err
      }
    }
    if err := txx.Where("course_id = ?", id).Delete(&types.Chapter{}).Error; err != nil {
      return err
    }
    if err := txx.Where("course_id = ?", id).Delete(&types.UserCourse{}).Error; err != nil {
      return err
    }
    if err := txx.Where("course_id = ?", id).Delete(&types.CourseGenerationRun{}).Error; err != nil {
      return err
    }
    return txx.Where("id = ?", id).Delete(&types.Course{}).Error
  })
}
