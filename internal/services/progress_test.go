package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/sashaspath/backend/internal/apperr"
	"github.com/sashaspath/backend/internal/sse"
	"github.com/sashaspath/backend/internal/types"
)

func lessonIDs(course *types.Course) []uuid.UUID {
	var ids []uuid.UUID
	for _, l := range FlattenLessons(course.Chapters) {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestFlattenLessons_OrdersByChapterThenLessonIndex(t *testing.T) {
	course := buildCourseTree("go-basics", 2, 3)
	// Shuffle the in-memory ordering; indexes must win.
	course.Chapters[0], course.Chapters[1] = course.Chapters[1], course.Chapters[0]
	ch := course.Chapters[0]
	ch.Lessons[0], ch.Lessons[2] = ch.Lessons[2], ch.Lessons[0]

	flat := FlattenLessons(course.Chapters)
	if len(flat) != 5 {
		t.Fatalf("expected 5 lessons, got %d", len(flat))
	}
	want := []string{"lesson 0.0", "lesson 0.1", "lesson 1.0", "lesson 1.1", "lesson 1.2"}
	for i, l := range flat {
		if l.Title != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], l.Title)
		}
	}
}

func TestLessonStates_FirstLessonNeverLocked(t *testing.T) {
	course := buildCourseTree("go-basics", 2, 2)
	states := LessonStates(course.Chapters, map[uuid.UUID]bool{})
	if states[0].Status != LessonUnlocked {
		t.Fatalf("expected first lesson unlocked, got %s", states[0].Status)
	}
	for i := 1; i < len(states); i++ {
		if states[i].Status != LessonLocked {
			t.Fatalf("position %d: expected locked, got %s", i, states[i].Status)
		}
	}
}

func TestLessonStates_UnlockFollowsPredecessorCompletion(t *testing.T) {
	course := buildCourseTree("go-basics", 2, 2)
	ids := lessonIDs(course)
	completed := map[uuid.UUID]bool{ids[0]: true, ids[1]: true}

	states := LessonStates(course.Chapters, completed)
	want := []LessonStatus{LessonComplete, LessonComplete, LessonUnlocked, LessonLocked}
	for i, state := range states {
		if state.Status != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], state.Status)
		}
	}
}

func TestLessonStates_UnlockCrossesChapterBoundary(t *testing.T) {
	course := buildCourseTree("go-basics", 1, 2)
	ids := lessonIDs(course)
	states := LessonStates(course.Chapters, map[uuid.UUID]bool{ids[0]: true})
	// Last lesson of chapter 0 complete unlocks first lesson of chapter 1.
	if states[1].Status != LessonUnlocked {
		t.Fatalf("expected first lesson of next chapter unlocked, got %s", states[1].Status)
	}
}

func TestProgressPercent(t *testing.T) {
	course := buildCourseTree("go-basics", 2, 2)
	ids := lessonIDs(course)

	if got := ProgressPercent(nil, nil); got != 0 {
		t.Fatalf("empty course: expected 0, got %d", got)
	}
	if got := ProgressPercent(course.Chapters, map[uuid.UUID]bool{}); got != 0 {
		t.Fatalf("nothing complete: expected 0, got %d", got)
	}
	if got := ProgressPercent(course.Chapters, map[uuid.UUID]bool{ids[0]: true}); got != 25 {
		t.Fatalf("1/4 complete: expected 25, got %d", got)
	}
	all := map[uuid.UUID]bool{}
	for _, id := range ids {
		all[id] = true
	}
	if got := ProgressPercent(course.Chapters, all); got != 100 {
		t.Fatalf("all complete: expected 100, got %d", got)
	}
}

func TestNextLesson(t *testing.T) {
	course := buildCourseTree("go-basics", 2, 1)
	ids := lessonIDs(course)

	next, ok := NextLesson(course.Chapters, ids[0])
	if !ok || next != ids[1] {
		t.Fatalf("expected next=%s ok=true, got %s %v", ids[1], next, ok)
	}
	if _, ok := NextLesson(course.Chapters, ids[2]); ok {
		t.Fatalf("expected no next after final lesson")
	}
	if _, ok := NextLesson(course.Chapters, uuid.New()); ok {
		t.Fatalf("expected no next for unknown lesson")
	}
}

func newTestProgressService(course *types.Course) (ProgressService, *fakeUserCourseRepo) {
	userCourses := newFakeUserCourseRepo()
	svc := NewProgressService(testLogger(), newFakeCourseRepo(course), userCourses, sse.NewHub(testLogger()))
	return svc, userCourses
}

func TestCompleteLesson_IsIdempotent(t *testing.T) {
	course := buildCourseTree("go-basics", 2)
	ids := lessonIDs(course)
	svc, _ := newTestProgressService(course)
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.CompleteLesson(ctx, userID, course.ID, ids[0])
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	second, err := svc.CompleteLesson(ctx, userID, course.ID, ids[0])
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if first.Percent != second.Percent {
		t.Fatalf("expected identical results, got %d then %d", first.Percent, second.Percent)
	}
	if second.Percent != 50 {
		t.Fatalf("expected 50%%, got %d", second.Percent)
	}
}

func TestCompleteLesson_RejectsForeignLesson(t *testing.T) {
	course := buildCourseTree("go-basics", 2)
	svc, _ := newTestProgressService(course)

	_, err := svc.CompleteLesson(context.Background(), uuid.New(), course.ID, uuid.New())
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not_found for lesson outside course, got %v", err)
	}
}

func TestCompleteLesson_ReturnsNextLessonThenTerminal(t *testing.T) {
	course := buildCourseTree("go-basics", 2)
	ids := lessonIDs(course)
	svc, _ := newTestProgressService(course)
	userID := uuid.New()
	ctx := context.Background()

	result, err := svc.CompleteLesson(ctx, userID, course.ID, ids[0])
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.NextLessonID == nil || *result.NextLessonID != ids[1] {
		t.Fatalf("expected next lesson %s, got %v", ids[1], result.NextLessonID)
	}
	if result.CourseDone {
		t.Fatalf("course should not be done yet")
	}

	result, err = svc.CompleteLesson(ctx, userID, course.ID, ids[1])
	if err != nil {
		t.Fatalf("complete final: %v", err)
	}
	if result.NextLessonID != nil {
		t.Fatalf("expected no next lesson, got %v", result.NextLessonID)
	}
	if !result.CourseDone || result.Percent != 100 {
		t.Fatalf("expected terminal 100%% result, got %+v", result)
	}
}

func TestGetProgress_UnenrolledUserSeesEmptyProgress(t *testing.T) {
	course := buildCourseTree("go-basics", 2)
	svc, _ := newTestProgressService(course)

	progress, err := svc.GetProgress(context.Background(), uuid.New(), course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if progress.Percent != 0 {
		t.Fatalf("expected 0%%, got %d", progress.Percent)
	}
	if progress.Lessons[0].Status != LessonUnlocked {
		t.Fatalf("expected first lesson unlocked, got %s", progress.Lessons[0].Status)
	}
}

func TestGetProgress_UnknownCourseIsNotFound(t *testing.T) {
	svc, _ := newTestProgressService(buildCourseTree("go-basics", 1))
	_, err := svc.GetProgress(context.Background(), uuid.New(), "missing-course")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
