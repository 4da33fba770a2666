package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserCourse is a learner's enrollment in a course. CompletedLessons is a JSON
// set of lesson ids; the progress service guarantees every entry refers to a
// lesson that exists in the enrolled course.
type UserCourse struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	CourseID         string         `gorm:"not null;index:idx_user_course,unique" json:"course_id"`
	StartedAt        time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	CompletedLessons datatypes.JSON `gorm:"column:completed_lessons;type:jsonb" json:"completed_lessons"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserCourse) TableName() string { return "user_course" }

// CompletedSet decodes CompletedLessons into a membership set. A null column
// is an empty set.
func (uc *UserCourse) CompletedSet() map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool)
	if uc == nil || len(uc.CompletedLessons) == 0 {
		return set
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(uc.CompletedLessons, &ids); err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func EncodeCompletedSet(set map[uuid.UUID]bool) datatypes.JSON {
	ids := make([]uuid.UUID, 0, len(set))
	for id, ok := range set {
		if ok {
			ids = append(ids, id)
		}
	}
	b, _ := json.Marshal(ids)
	return datatypes.JSON(b)
}
