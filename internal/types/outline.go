package types

import "github.com/google/uuid"

// CourseOutline is the chapter/lesson skeleton produced before any lesson
// content exists: titles and ids only.
type CourseOutline struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Chapters []OutlineChapter `json:"chapters"`
}

type OutlineChapter struct {
	ID      uuid.UUID       `json:"id"`
	Title   string          `json:"title"`
	Lessons []OutlineLesson `json:"lessons"`
}

type OutlineLesson struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

func (o *CourseOutline) LessonCount() int {
	n := 0
	for _, ch := range o.Chapters {
		n += len(ch.Lessons)
	}
	return n
}
