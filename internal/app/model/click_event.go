package model

import "time"

// ClickEvent is one recorded visit to a short link. Insert-only; the
// retention sweeper is the only thing that ever removes rows.
type ClickEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	LinkID    int64     `json:"link_id" gorm:"index;not null"`
	IP        string    `json:"ip" gorm:"size:45"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index;not null"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-recorder"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// DailyClicks is one bucket of the trailing-window analytics series.
type DailyClicks struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
