package domain

import "time"

// SenderStyle caches a learned writing style per counterpart so repeated runs
// skip re-analysis. Style is stored as the WritingStyle JSON.
type SenderStyle struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Address   string    `json:"address" gorm:"uniqueIndex;not null"`
	StyleJSON string    `json:"style_json" gorm:"type:text"`
	LearnedAt time.Time `json:"learned_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SenderStyle) TableName() string {
	return "sender_styles"
}

// MessageSummary caches the AI one-line summary for a message so a
// reclassification run does not pay for the same summary twice.
type MessageSummary struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	MessageID string    `json:"message_id" gorm:"uniqueIndex;not null"`
	Summary   string    `json:"summary" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (MessageSummary) TableName() string {
	return "message_summaries"
}

// RunRecord is an audit row for one batch run.
type RunRecord struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	NeedsReply int       `json:"needs_reply"`
	Drafted    int       `json:"drafted"`
	Failed     int       `json:"failed"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (RunRecord) TableName() string {
	return "run_records"
}
