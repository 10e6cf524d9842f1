package models

import (
	"time"
)

// UnknownApp is recorded when the foreground application cannot be resolved.
const UnknownApp = "Unknown"

// LoginWindowApp identifies the lock-screen/login context. Samples carrying
// this name are excluded at capture time and never reach the store.
const LoginWindowApp = "loginwindow"

// ActivitySample is one timestamped observation of the foreground application
// and the user's idle state. Samples are append-only: they are inserted in
// non-decreasing timestamp order by a single writer and never mutated.
type ActivitySample struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	AppName   string    `gorm:"not null" json:"app_name"`
	IsIdle    bool      `gorm:"not null;default:false" json:"is_idle"`
}
