package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
  "github.com/sashaspath/backend/internal/utils"
)

// CourseOutlineBuilder turns a topic into a slug-keyed outline, charging the
// daily quota up front. Nothing is persisted here; a failed build leaves no
// trace except the consumed quota unit.
type CourseOutlineBuilder interface {
  Build(ctx context.Context, topic string, admin bool) (*types.CourseOutline, error)
}

type outlineBuilder struct {
  log       *logger.Logger
  quota     QuotaGate
  generator ContentGenerator
}

func NewCourseOutlineBuilder(log *logger.Logger, quota QuotaGate, generator ContentGenerator) CourseOutlineBuilder {
  return &outlineBuilder{
    log:       log.With("service", "CourseOutlineBuilder"),
    quota:     quota,
    generator: generator,
  }
}

func (b *outlineBuilder) Build(ctx context.Context, topic string, admin bool) (*types.CourseOutline, error) {
  if err := b.quota.Reserve(ctx, admin); err != nil {
    return nil, err
  }

  outline, err := b.generator.GenerateCourseOutline(ctx, topic)
  if err != nil {
    // The reserved unit is not refunded: failed generations still burn budget.
    return nil, err
  }

  if !utils.IsSlug(outline.ID) {
    outline.ID = utils.Slugify(outline.Title)
  }
  for i := range outline.Chapters {
    ch := &outline.Chapters[i]
    if ch.ID == uuid.Nil {
      ch.ID = uuid.New()
    }
    for j := range ch.Lessons {
      if ch.Lessons[j].ID == uuid.Nil {
        ch.Lessons[j].ID = uuid.New()
      }
    }
  }

  b.log.Info("built course outline", "slug", outline.ID, "title", outline.Title)
  return outline, nil
}
