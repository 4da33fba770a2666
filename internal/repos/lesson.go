package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

type LessonRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Lesson) ([]*types.Lesson, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error)
  GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Lesson, error)
  // SetGeneratedContent writes one lesson's generation result. Updates are
  // scoped to the single lesson row so concurrent expansion tasks can never
  // clobber a sibling lesson's result.
  SetGeneratedContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, content, quiz, exercises datatypes.JSON, generated bool) error
}

type lessonRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
  return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Lesson) ([]*types.Lesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.Lesson{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *lessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Lesson
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

func (r *lessonRepo) GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Lesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Lesson
  if len(chapterIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("chapter_id IN ?", chapterIDs).
    Order("index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *lessonRepo) SetGeneratedContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, content, quiz, exercises datatypes.JSON, generated bool) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  return transaction.WithContext(ctx).
    Model(&types.Lesson{}).
    Where("id = ?", id).
    Updates(map[string]interface{}{
      "content":    content,
      "quiz":       quiz,
      "exercises":  exercises,
      "generated":  generated,
      "updated_at": time.Now(),
    }).Error
}
