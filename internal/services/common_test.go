package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sashaspath/backend/internal/logger"
	"github.com/sashaspath/backend/internal/types"
)

func testLogger() *logger.Logger { return logger.NewNop() }

// fakeCounter is an in-memory UsageCounter with the same atomicity contract
// as the real backends.
type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int)}
}

func (f *fakeCounter) ReserveUnit(ctx context.Context, day string, limit int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, false, f.err
	}
	if f.counts[day] >= limit {
		return f.counts[day], false, nil
	}
	f.counts[day]++
	return f.counts[day], true, nil
}

func (f *fakeCounter) GetCount(ctx context.Context, day string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[day], nil
}

// fakeGenerator drives ContentGenerator behavior per test via function fields.
type fakeGenerator struct {
	mu            sync.Mutex
	outlineFn     func(topic string) (*types.CourseOutline, error)
	contentFn     func(topic string) ([]types.ContentBlock, error)
	practiceFn    func(topic string) (*types.PracticeSession, error)
	contentCalls  []string
	practiceCalls []string
}

func (f *fakeGenerator) GenerateCourseOutline(ctx context.Context, topic string) (*types.CourseOutline, error) {
	if f.outlineFn == nil {
		return nil, fmt.Errorf("no outlineFn")
	}
	return f.outlineFn(topic)
}

func (f *fakeGenerator) GenerateLessonContent(ctx context.Context, topic string, level types.Level) ([]types.ContentBlock, error) {
	f.mu.Lock()
	f.contentCalls = append(f.contentCalls, topic)
	f.mu.Unlock()
	if f.contentFn == nil {
		return []types.ContentBlock{types.TextBlock("body for " + topic)}, nil
	}
	return f.contentFn(topic)
}

func (f *fakeGenerator) GeneratePracticeSession(ctx context.Context, topic string, level types.Level) (*types.PracticeSession, error) {
	f.mu.Lock()
	f.practiceCalls = append(f.practiceCalls, topic)
	f.mu.Unlock()
	if f.practiceFn == nil {
		return validPracticeSession(), nil
	}
	return f.practiceFn(topic)
}

func validPracticeSession() *types.PracticeSession {
	q := types.QuizQuestion{
		Question:      "q",
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: "a",
	}
	e := types.CodingExercise{Problem: "p", Solution: "s", TestCase: "t"}
	return &types.PracticeSession{
		Questions: []types.QuizQuestion{q, q, q},
		Exercises: []types.CodingExercise{e, e, e},
	}
}

// fakeCourseRepo holds one course tree keyed by id.
type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*types.Course
	updates map[string][]map[string]interface{}
	getErr  error
}

func newFakeCourseRepo(courses ...*types.Course) *fakeCourseRepo {
	m := make(map[string]*types.Course)
	for _, c := range courses {
		m[c.ID] = c
	}
	return &fakeCourseRepo{courses: m, updates: make(map[string][]map[string]interface{})}
}

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range rows {
		f.courses[c.ID] = c
	}
	return rows, nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.courses[id], nil
}

func (f *fakeCourseRepo) GetTreeByID(ctx context.Context, tx *gorm.DB, id string) (*types.Course, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeCourseRepo) ListHomepage(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Course
	for _, c := range f.courses {
		if c.ShowOnHomepage {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Course
	for _, id := range ids {
		if c, ok := f.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = append(f.updates[id], updates)
	if c, ok := f.courses[id]; ok {
		if status, ok := updates["status"].(string); ok {
			c.Status = status
		}
	}
	return nil
}

func (f *fakeCourseRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.courses, id)
	return nil
}

// fakeLessonRepo records SetGeneratedContent writes keyed by lesson id.
type lessonWrite struct {
	content   datatypes.JSON
	quiz      datatypes.JSON
	exercises datatypes.JSON
	generated bool
}

type fakeLessonRepo struct {
	mu     sync.Mutex
	writes map[uuid.UUID][]lessonWrite
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{writes: make(map[uuid.UUID][]lessonWrite)}
}

func (f *fakeLessonRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Lesson) ([]*types.Lesson, error) {
	return rows, nil
}

func (f *fakeLessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
	return nil, nil
}

func (f *fakeLessonRepo) GetByChapterIDs(ctx context.Context, tx *gorm.DB, chapterIDs []uuid.UUID) ([]*types.Lesson, error) {
	return nil, nil
}

func (f *fakeLessonRepo) SetGeneratedContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, content, quiz, exercises datatypes.JSON, generated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes[id] = append(f.writes[id], lessonWrite{content: content, quiz: quiz, exercises: exercises, generated: generated})
	return nil
}

// fakeUserCourseRepo keys enrollments by user+course.
type fakeUserCourseRepo struct {
	mu   sync.Mutex
	rows map[string]*types.UserCourse
}

func newFakeUserCourseRepo() *fakeUserCourseRepo {
	return &fakeUserCourseRepo{rows: make(map[string]*types.UserCourse)}
}

func enrollmentKey(userID uuid.UUID, courseID string) string {
	return userID.String() + "/" + courseID
}

func (f *fakeUserCourseRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string) (*types.UserCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[enrollmentKey(userID, courseID)], nil
}

func (f *fakeUserCourseRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.UserCourse
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeUserCourseRepo) EnsureEnrollment(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string) (*types.UserCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := enrollmentKey(userID, courseID)
	if row, ok := f.rows[key]; ok {
		return row, nil
	}
	row := &types.UserCourse{
		ID:               uuid.New(),
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: types.EncodeCompletedSet(nil),
	}
	f.rows[key] = row
	return row, nil
}

func (f *fakeUserCourseRepo) AddCompletedLesson(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseID string, lessonID uuid.UUID) (*types.UserCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[enrollmentKey(userID, courseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	set := row.CompletedSet()
	set[lessonID] = true
	row.CompletedLessons = types.EncodeCompletedSet(set)
	return row, nil
}

// buildCourseTree makes a course with the given lessons-per-chapter layout,
// all lessons ungenerated.
func buildCourseTree(id string, lessonsPerChapter ...int) *types.Course {
	course := &types.Course{ID: id, Title: id, Status: types.CourseStatusGenerating}
	for ci, n := range lessonsPerChapter {
		ch := &types.Chapter{ID: uuid.New(), CourseID: id, Index: ci, Title: fmt.Sprintf("chapter %d", ci)}
		for li := 0; li < n; li++ {
			ch.Lessons = append(ch.Lessons, &types.Lesson{
				ID:        uuid.New(),
				ChapterID: ch.ID,
				Index:     li,
				Title:     fmt.Sprintf("lesson %d.%d", ci, li),
				Content:   datatypes.JSON([]byte("[]")),
				Quiz:      datatypes.JSON([]byte("[]")),
				Exercises: datatypes.JSON([]byte("[]")),
			})
		}
		course.Chapters = append(course.Chapters, ch)
	}
	return course
}
