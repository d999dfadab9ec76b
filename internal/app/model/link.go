package model

import "time"

// Link describes one shortening mapping stored in Postgres.
//
// ShortCode and OriginalURL are immutable once assigned and each carry a
// unique constraint: the code constraint serializes concurrent registrations
// that hash to the same candidate, the URL constraint makes creation
// idempotent per target. VisitCount is only ever touched by the click
// recorder's atomic increment.
type Link struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      *int64    `json:"user_id,omitempty" gorm:"index"`
	ShortCode   string    `json:"short_code" gorm:"uniqueIndex;size:16;not null"`
	OriginalURL string    `json:"original_url" gorm:"uniqueIndex;type:text;not null"`
	VisitCount  int64     `json:"visit_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
