package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/sashaspath/backend/internal/apperr"
	"github.com/sashaspath/backend/internal/types"
)

func fiveChapterOutline(title string) *types.CourseOutline {
	outline := &types.CourseOutline{Title: title}
	for c := 0; c < 5; c++ {
		ch := types.OutlineChapter{ID: uuid.New(), Title: "ch"}
		for l := 0; l < 3; l++ {
			ch.Lessons = append(ch.Lessons, types.OutlineLesson{ID: uuid.New(), Title: "l"})
		}
		outline.Chapters = append(outline.Chapters, ch)
	}
	return outline
}

func TestOutlineBuilder_DerivesSlugFromTitle(t *testing.T) {
	gate := newTestGate(t, 10, newFakeCounter())
	generator := &fakeGenerator{
		outlineFn: func(topic string) (*types.CourseOutline, error) {
			return fiveChapterOutline("Learn Java From Scratch!"), nil
		},
	}
	builder := NewCourseOutlineBuilder(testLogger(), gate, generator)

	outline, err := builder.Build(context.Background(), "java", false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if outline.ID != "learn-java-from-scratch" {
		t.Fatalf("expected slug learn-java-from-scratch, got %q", outline.ID)
	}
}

func TestOutlineBuilder_KeepsCleanGeneratorSlug(t *testing.T) {
	gate := newTestGate(t, 10, newFakeCounter())
	generator := &fakeGenerator{
		outlineFn: func(topic string) (*types.CourseOutline, error) {
			outline := fiveChapterOutline("Anything")
			outline.ID = "already-clean"
			return outline, nil
		},
	}
	builder := NewCourseOutlineBuilder(testLogger(), gate, generator)

	outline, err := builder.Build(context.Background(), "java", false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if outline.ID != "already-clean" {
		t.Fatalf("expected generator slug kept, got %q", outline.ID)
	}
}

func TestOutlineBuilder_QuotaRejectionSkipsGenerator(t *testing.T) {
	gate := newTestGate(t, 0, newFakeCounter())
	generatorCalled := false
	generator := &fakeGenerator{
		outlineFn: func(topic string) (*types.CourseOutline, error) {
			generatorCalled = true
			return fiveChapterOutline("x"), nil
		},
	}
	builder := NewCourseOutlineBuilder(testLogger(), gate, generator)

	_, err := builder.Build(context.Background(), "java", false)
	if !apperr.IsQuotaExceeded(err) {
		t.Fatalf("expected quota_exceeded, got %v", err)
	}
	if generatorCalled {
		t.Fatalf("generator must not run when quota is exhausted")
	}
}

func TestOutlineBuilder_AssignsMissingIDs(t *testing.T) {
	gate := newTestGate(t, 10, newFakeCounter())
	generator := &fakeGenerator{
		outlineFn: func(topic string) (*types.CourseOutline, error) {
			outline := fiveChapterOutline("Go Routines")
			outline.Chapters[0].ID = uuid.Nil
			outline.Chapters[0].Lessons[1].ID = uuid.Nil
			return outline, nil
		},
	}
	builder := NewCourseOutlineBuilder(testLogger(), gate, generator)

	outline, err := builder.Build(context.Background(), "go", false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if outline.Chapters[0].ID == uuid.Nil || outline.Chapters[0].Lessons[1].ID == uuid.Nil {
		t.Fatalf("expected missing ids to be assigned")
	}
}
