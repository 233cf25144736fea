package storage

import "time"

// Session groups the persisted transcript of one assistant conversation.
type Session struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TranscriptMessage is one conversation turn as persisted.
// Provenance records how the vision context attached to the turn was
// derived ("model", "ocr", "none"); empty for turns without a capture.
type TranscriptMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"index;not null" json:"session_id"`
	Role        string    `gorm:"not null" json:"role"`
	Content     string    `gorm:"type:text" json:"content"`
	Provenance  string    `json:"provenance,omitempty"`
	Interrupted bool      `gorm:"default:false" json:"interrupted"`
	CreatedAt   time.Time `json:"created_at"`
}
