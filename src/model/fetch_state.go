package model

import "time"

const (
	FetchStatusSuccess    = "success"
	FetchStatusError      = "error"
	FetchStatusInProgress = "in_progress"
)

// FetchState is the per-category ledger of refresh attempts. One row per
// category ("metals", "fx"). The refresher writes it twice per attempt:
// once at entry (in_progress) and once with the terminal status.
// ConsecutiveFailures resets to zero on success and increments on error;
// it drives the failure-threshold alert.
type FetchState struct {
	Category            string     `gorm:"primaryKey;size:20" json:"category"`
	LastStatus          string     `gorm:"size:20;not null" json:"last_status"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`
	LastError           string     `gorm:"type:text" json:"last_error,omitempty"`
	ConsecutiveFailures int        `gorm:"not null;default:0" json:"consecutive_failures"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (FetchState) TableName() string {
	return "fetch_states"
}
