package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

type ChapterRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Chapter) ([]*types.Chapter, error)
  GetByCourseID(ctx context.Context, tx *gorm.DB, courseID string) ([]*types.Chapter, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Chapter, error)
}

type chapterRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
  return &chapterRepo{db: db, log: baseLog.With("repo", "ChapterRepo")}
}

func (r *chapterRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Chapter) ([]*types.Chapter, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.Chapter{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *chapterRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID string) ([]*types.Chapter, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Chapter
  if courseID == "" {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("course_id = ?", courseID).
    Order("index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *chapterRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Chapter, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Chapter
  if len(ids) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
