package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

const (
	RunStageOutline = "outline"
	RunStageLessons = "lessons"
	RunStageDone    = "done"
)

// CourseGenerationRun is the durable checkpoint record for one course's
// expansion. The outline stage is already complete when the run is enqueued
// (no course row exists without an outline); the worker picks the run up at
// the lessons stage and can resume after a crash without regenerating lessons
// that already have content.
type CourseGenerationRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    string         `gorm:"not null;index" json:"course_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Level       Level          `gorm:"column:level;not null;default:'beginner'" json:"level"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	Stage       string         `gorm:"column:stage;not null" json:"stage"`
	Progress    int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Attempts    int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error       string         `gorm:"column:error" json:"error"`
	LastErrorAt *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt    *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time     `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseGenerationRun) TableName() string { return "course_generation_run" }
