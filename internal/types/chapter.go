package types

import (
	"time"

	"github.com/google/uuid"
)

// Chapter order within a course is significant: Index defines the progression
// sequence the unlock rules walk.
type Chapter struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  string    `gorm:"not null;index" json:"course_id"`
	Index     int       `gorm:"column:index;not null" json:"index"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Lessons   []*Lesson `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChapterID;references:ID" json:"lessons,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapter" }
