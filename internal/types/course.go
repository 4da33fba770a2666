package types

import (
	"time"
)

const (
	CourseStatusGenerating = "generating"
	CourseStatusReady      = "ready"
)

// Course is keyed by a URL slug derived from its title, not a uuid: the id is
// the public identity the client navigates by.
type Course struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"column:title;not null" json:"title"`
	Status         string     `gorm:"column:status;not null;default:'generating'" json:"status"`
	ShowOnHomepage bool       `gorm:"column:show_on_homepage;not null;default:false" json:"show_on_homepage"`
	Chapters       []*Chapter `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"chapters,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }
