package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/google/uuid"

  "github.com/sashaspath/backend/internal/apperr"
  "github.com/sashaspath/backend/internal/logger"
  "github.com/sashaspath/backend/internal/types"
)

// ContentGenerator produces the three artifact shapes a course is built from.
// Every method returns structurally validated output or a generation error;
// callers never see a half-valid outline or a practice session with the wrong
// cardinality.
type ContentGenerator interface {
  GenerateCourseOutline(ctx context.Context, topic string) (*types.CourseOutline, error)
  GenerateLessonContent(ctx context.Context, lessonTopic string, level types.Level) ([]types.ContentBlock, error)
  GeneratePracticeSession(ctx context.Context, lessonTopic string, level types.Level) (*types.PracticeSession, error)
}

type contentGenerator struct {
  log *logger.Logger
  ai  OpenAIClient
}

func NewContentGenerator(log *logger.Logger, ai OpenAIClient) ContentGenerator {
  return &contentGenerator{
    log: log.With("service", "ContentGenerator"),
    ai:  ai,
  }
}

const (
  outlineMinChapters = 5
  outlineMaxChapters = 10
  outlineMinLessons  = 3
  outlineMaxLessons  = 7
)

const outlineSystemPrompt = `You are a curriculum designer for a self-paced programming school.
Produce a course outline for the requested topic: a course title, between 5 and 10 chapters,
and between 3 and 7 lessons per chapter. Order chapters and lessons from fundamentals to
advanced material. Titles are short and concrete.`

const lessonSystemPrompt = `You are writing one lesson of a self-paced programming course.
Produce an ordered list of content blocks. A "text" block carries markdown prose teaching
one idea. An "interactive_code" block carries a description of a small coding task the
student runs in the editor, plus the exact expected output. Mix both kinds; start with
prose, end with something runnable.`

const practiceSystemPrompt = `You are writing the practice material for one lesson of a
self-paced programming course. Produce exactly 3 multiple-choice quiz questions (each with
exactly 4 options, one of which is the correct answer copied verbatim into correct_answer)
and exactly 3 coding exercises (each with a problem statement, a reference solution, and a
single test case that checks the solution).`

func (g *contentGenerator) GenerateCourseOutline(ctx context.Context, topic string) (*types.CourseOutline, error) {
  user := fmt.Sprintf("Course topic: %s", topic)

  raw, err := g.ai.GenerateJSON(ctx, outlineSystemPrompt, user, schemaNameOutline, outlineSchema)
  if err != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("outline: %w", err))
  }
  if err := validateAgainstSchema(schemaNameOutline, outlineSchema, raw); err != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("outline: %w", err))
  }

  var decoded struct {
    Title    string `json:"title"`
    Chapters []struct {
      Title   string `json:"title"`
      Lessons []struct {
        Title string `json:"title"`
      } `json:"lessons"`
    } `json:"chapters"`
  }
  if err := json.Unmarshal(raw, &decoded); err != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("outline: decode: %w", err))
  }

  outline := &types.CourseOutline{
    Title:    decoded.Title,
    Chapters: make([]types.OutlineChapter, 0, len(decoded.Chapters)),
  }
  for _, ch := range decoded.Chapters {
    oc := types.OutlineChapter{
      ID:      uuid.New(),
      Title:   ch.Title,
      Lessons: make([]types.OutlineLesson, 0, len(ch.Lessons)),
    }
    for _, l := range ch.Lessons {
      oc.Lessons = append(oc.Lessons, types.OutlineLesson{ID: uuid.New(), Title: l.Title})
    }
    outline.Chapters = append(outline.Chapters, oc)
  }

  if err := validateOutlineBounds(outline); err != nil {
    return nil, apperr.New(apperr.KindGeneration, err)
  }

  g.log.Info("generated course outline",
    "topic", topic,
    "chapters", len(outline.Chapters),
    "lessons", outline.LessonCount())
  return outline, nil
}

func validateOutlineBounds(o *types.CourseOutline) error {
  if o.Title == "" {
    return fmt.Errorf("outline: empty title")
  }
  if n := len(o.Chapters); n < outlineMinChapters || n > outlineMaxChapters {
    return fmt.Errorf("outline: want %d-%d chapters, got %d", outlineMinChapters, outlineMaxChapters, n)
  }
  for i, ch := range o.Chapters {
    if ch.Title == "" {
      return fmt.Errorf("outline: chapter %d has empty title", i)
    }
    if n := len(ch.Lessons); n < outlineMinLessons || n > outlineMaxLessons {
      return fmt.Errorf("outline: chapter %d wants %d-%d lessons, got %d", i, outlineMinLessons, outlineMaxLessons, n)
    }
    for j, l := range ch.Lessons {
      if l.Title == "" {
        return fmt.Errorf("outline: chapter %d lesson %d has empty title", i, j)
      }
    }
  }
  return nil
}

func (g *contentGenerator) GenerateLessonContent(ctx context.Context, lessonTopic string, level types.Level) ([]types.ContentBlock, error) {
  user := fmt.Sprintf("Lesson topic: %s\nStudent level: %s", lessonTopic, level)

  raw, err := g.ai.GenerateJSON(ctx, lessonSystemPrompt, user, schemaNameLesson, lessonContentSchema)
  if err != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("lesson content: %w", err))
  }
  if err := validateAgainstSchema(schemaNameLesson, lessonContentSchema, raw); err != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("lesson content: %w", err))
  }

  var decoded struct {
    Blocks []types.ContentBlock `json:"blocks"`
  }
  if err := json.Unmarshal(raw, &decoded); err != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("lesson content: decode: %w", err))
  }
  if len(decoded.Blocks) == 0 {
    return nil, apperr.Newf(apperr.KindGeneration, "lesson content: no blocks")
  }
  return decoded.Blocks, nil
}

func (g *contentGenerator) GeneratePracticeSession(ctx context.Context, lessonTopic string, level types.Level) (*types.PracticeSession, error) {
  session, err := g.generatePracticeOnce(ctx, lessonTopic, level)
  if err == nil {
    return session, nil
  }

  // One regeneration attempt: models occasionally miss the cardinality even
  // under a strict schema, and a fresh sample usually lands it.
  g.log.Warn("practice session rejected, regenerating", "topic", lessonTopic, "error", err)
  session, retryErr := g.generatePracticeOnce(ctx, lessonTopic, level)
  if retryErr != nil {
    return nil, apperr.New(apperr.KindGeneration, fmt.Errorf("practice session: %w (first attempt: %v)", retryErr, err))
  }
  return session, nil
}

func (g *contentGenerator) generatePracticeOnce(ctx context.Context, lessonTopic string, level types.Level) (*types.PracticeSession, error) {
  user := fmt.Sprintf("Lesson topic: %s\nStudent level: %s", lessonTopic, level)

  raw, err := g.ai.GenerateJSON(ctx, practiceSystemPrompt, user, schemaNamePractice, practiceSessionSchema)
  if err != nil {
    return nil, err
  }
  if err := validateAgainstSchema(schemaNamePractice, practiceSessionSchema, raw); err != nil {
    return nil, err
  }

  var session types.PracticeSession
  if err := json.Unmarshal(raw, &session); err != nil {
    return nil, fmt.Errorf("decode: %w", err)
  }
  if err := session.Validate(); err != nil {
    return nil, err
  }
  return &session, nil
}
