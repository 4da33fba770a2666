package services

import (
  "context"
  "time"

  "github.com/sashaspath/backend/internal/apperr"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/utils"
)

// UsageCounter is the storage behind the daily quota: a named day bucket with
// an atomic check-and-increment. Backed by postgres (repos.DailyUsageRepo) or
// redis (redisclient.DayCounter) depending on deployment.
type UsageCounter interface {
  // ReserveUnit atomically consumes one unit of the day's budget if count is
  // still below limit. Returns the count after the call and whether the unit
  // was granted.
  ReserveUnit(ctx context.Context, day string, limit int) (int, bool, error)
  GetCount(ctx context.Context, day string) (int, error)
}

// QuotaGate admits or rejects generation attempts against a shared daily
// budget. The effective per-day limit for non-admin users is 80% of the raw
// quota (floored), keeping headroom for operator-triggered runs.
type QuotaGate interface {
  // Reserve consumes one generation unit for today, or fails with a
  // quota_exceeded error. A reserved unit is never refunded: downstream
  // generation failures still count against the day.
  Reserve(ctx context.Context, admin bool) error
  Status(ctx context.Context) (*QuotaStatus, error)
}

type QuotaStatus struct {
  Date      string `json:"date"`
  Used      int    `json:"used"`
  Limit     int    `json:"limit"`
  Remaining int    `json:"remaining"`
}

type quotaGate struct {
  log     *logger.Logger
  counter UsageCounter
  quota   int
  now     func() time.Time
}

const defaultDailyQuota = 100

func NewQuotaGate(log *logger.Logger, counter UsageCounter) QuotaGate {
  return &quotaGate{
    log:     log.With("service", "QuotaGate"),
    counter: counter,
    quota:   utils.GetEnvAsInt("DAILY_GENERATION_QUOTA", defaultDailyQuota, log),
    now:     time.Now,
  }
}

// userLimit is the non-admin ceiling: floor(quota * 0.8).
func (g *quotaGate) userLimit() int {
  return g.quota * 8 / 10
}

// dayKey buckets usage by UTC calendar day so every instance agrees on when
// the budget resets.
func (g *quotaGate) dayKey() string {
  return g.now().UTC().Format("2006-01-02")
}

func (g *quotaGate) Reserve(ctx context.Context, admin bool) error {
  limit := g.userLimit()
  if admin {
    limit = g.quota
  }
  day := g.dayKey()

  count, ok, err := g.counter.ReserveUnit(ctx, day, limit)
  if err != nil {
    return apperr.Newf(apperr.KindPersistence, "quota reserve: %v", err)
  }
  if !ok {
    g.log.Warn("daily quota exhausted", "date", day, "count", count, "limit", limit)
    return apperr.Newf(apperr.KindQuotaExceeded, "daily generation quota reached (%d/%d)", count, limit)
  }
  g.log.Info("reserved generation unit", "date", day, "count", count, "limit", limit)
  return nil
}

func (g *quotaGate) Status(ctx context.Context) (*QuotaStatus, error) {
  day := g.dayKey()
  count, err := g.counter.GetCount(ctx, day)
  if err != nil {
    return nil, apperr.Newf(apperr.KindPersistence, "quota status: %v", err)
  }
  limit := g.userLimit()
  remaining := limit - count
  if remaining < 0 {
    remaining = 0
  }
  return &QuotaStatus{Date: day, Used: count, Limit: limit, Remaining: remaining}, nil
}
