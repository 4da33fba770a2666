package repos

import (
  "context"
  "time"

  "gorm.io/gorm"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

type DailyUsageRepo interface {
  // ReserveUnit atomically increments the day's counter when it is still
  // below limit. The insert-or-conditional-update happens in one statement,
  // so two callers racing at limit-1 can never both be admitted.
  ReserveUnit(ctx context.Context, tx *gorm.DB, day string, limit int) (count int, allowed bool, err error)
  GetCount(ctx context.Context, tx *gorm.DB, day string) (int, error)
}

type dailyUsageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDailyUsageRepo(db *gorm.DB, baseLog *logger.Logger) DailyUsageRepo {
  return &dailyUsageRepo{db: db, log: baseLog.With("repo", "DailyUsageRepo")}
}

func (r *dailyUsageRepo) ReserveUnit(ctx context.Context, tx *gorm.DB, day string, limit int) (int, bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if limit <= 0 {
    count, err := r.GetCount(ctx, transaction, day)
    if err != nil {
      return 0, false, err
    }
    return count, false, nil
  }

  now := time.Now()
  var rows []types.DailyUsage
  err := transaction.WithContext(ctx).Raw(`
    INSERT INTO daily_usage (date, count, created_at, updated_at)
    VALUES (?, 1, ?, ?)
    ON CONFLICT (date) DO UPDATE
      SET count = daily_usage.count + 1, updated_at = ?
      WHERE daily_usage.count < ?
    RETURNING date, count, created_at, updated_at
  `, day, now, now, now, limit).Scan(&rows).Error
  if err != nil {
    return 0, false, err
  }
  if len(rows) == 0 {
    // Conflict row exists and the conditional update did not fire: at limit.
    count, err := r.GetCount(ctx, transaction, day)
    if err != nil {
      return 0, false, err
    }
    return count, false, nil
  }
  return rows[0].Count, true, nil
}

func (r *dailyUsageRepo) GetCount(ctx context.Context, tx *gorm.DB, day string) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var row types.DailyUsage
  err := transaction.WithContext(ctx).
    Where("date = ?", day).
    Limit(1).
    Find(&row).Error
  if err != nil {
    return 0, err
  }
  return row.Count, nil
}

// PostgresUsageCounter exposes the repo without the tx parameter, matching
// the quota gate's counter contract.
type PostgresUsageCounter struct {
  repo DailyUsageRepo
}

func NewPostgresUsageCounter(repo DailyUsageRepo) *PostgresUsageCounter {
  return &PostgresUsageCounter{repo: repo}
}

func (c *PostgresUsageCounter) ReserveUnit(ctx context.Context, day string, limit int) (int, bool, error) {
  return c.repo.ReserveUnit(ctx, nil, day, limit)
}

func (c *PostgresUsageCounter) GetCount(ctx context.Context, day string) (int, error) {
  return c.repo.GetCount(ctx, nil, day)
}
