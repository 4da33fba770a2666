package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error)
  GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
  GetOrCreateByEmail(ctx context.Context, tx *gorm.DB, email, displayName string) (*types.User, error)
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.User{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.User
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

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var user types.User
  err := transaction.WithContext(ctx).
    Where("email = ?", email).
    First(&user).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &user, nil
}

func (r *userRepo) GetOrCreateByEmail(ctx context.Context, tx *gorm.DB, email, displayName string) (*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  existing, err := r.GetByEmail(ctx, transaction, email)
  if err != nil {
    return nil, err
  }
  if existing != nil {
    return existing, nil
  }
  now := time.Now()
  user := &types.User{
    ID:          uuid.New(),
    Email:       email,
    DisplayName: displayName,
    CreatedAt:   now,
    UpdatedAt:   now,
  }
  if err := transaction.WithContext(ctx).Create(user).Error; err != nil {
    return nil, err
  }
  return user, nil
}
