package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Lesson content/quiz/exercises are JSON payload columns. An empty (or null)
// content array is the sentinel for "not yet generated"; Generated records the
// distinction explicitly for readers that need it.
type Lesson struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ChapterID uuid.UUID      `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Index     int            `gorm:"column:index;not null" json:"index"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Content   datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	Quiz      datatypes.JSON `gorm:"column:quiz;type:jsonb" json:"quiz"`
	Exercises datatypes.JSON `gorm:"column:exercises;type:jsonb" json:"exercises"`
	Generated bool           `gorm:"column:generated;not null;default:false" json:"generated"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

// HasContent reports whether the lesson's content has been generated. Readers
// must treat empty arrays as a valid "ungenerated" state, never as an error.
func (l *Lesson) HasContent() bool {
	if l == nil {
		return false
	}
	if l.Generated {
		return true
	}
	blocks, err := DecodeContentBlocks(l.Content)
	return err == nil && len(blocks) > 0
}
