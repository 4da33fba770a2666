package types

import "time"

// DailyUsage is the shared AI-call counter, one row per UTC calendar day.
// Rows are created lazily on the first reservation of a day and never deleted;
// a new date key supersedes the old one.
type DailyUsage struct {
	Date      string    `gorm:"primaryKey" json:"date"` // "2006-01-02", UTC
	Count     int       `gorm:"column:count;not null;default:0" json:"count"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DailyUsage) TableName() string { return "daily_usage" }
