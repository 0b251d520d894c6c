package models

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ChatID    int64 `gorm:"uniqueIndex"`
	Username  string
	FirstName string
	LastName  string
	Plan      string

	Notifiers []Notifier
	Watches   []Watch
}

type Notifier struct {
	gorm.Model
	UserID             uint
	Verified           bool
	Platform           string
	PlatformIdentifier string
}

// Watch is a standing request to monitor a route and date range for fares
// below a ceiling. MaxPrice nil means no ceiling.
type Watch struct {
	gorm.Model
	UserID     uint `gorm:"index"`
	NotifierID uint

	Origin      string `gorm:"size:3"`
	Destination string `gorm:"size:3"`
	RangeFrom   time.Time
	RangeTo     time.Time
	Direct      bool
	MaxPrice    *float64
	Currency    string `gorm:"size:3"`

	Active               bool
	CheckIntervalMinutes int
	LastCheckedAt        sql.NullTime
	NextCheckAt          sql.NullTime

	Notifier Notifier
}

type Watches []Watch

func (w *Watch) CheckInterval() time.Duration {
	return time.Duration(w.CheckIntervalMinutes) * time.Minute
}

func (w *Watch) Route() string {
	return w.Origin + " → " + w.Destination
}
