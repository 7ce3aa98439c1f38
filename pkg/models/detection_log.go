package models

import (
	"time"

	"github.com/google/uuid"
)

// Enforcement actions for contact detection, in escalation order.
const (
	DetectionActionWarning = "WARNING" // masked and persisted, sender warned
	DetectionActionFlagged = "FLAGGED" // persisted, queued for manual review
	DetectionActionBlocked = "BLOCKED" // rejected outright, never persisted
)

// ContactDetectionLog is an append-only audit row per detected violation.
// ViolationCount is the user's cumulative count at the time of this event,
// derived from prior rows. The log is the source of truth for escalation;
// any cached counter is only a hint.
// Stored in engine_contact_detection_logs table.
type ContactDetectionLog struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
	MatchID  *uuid.UUID `json:"match_id,omitempty"`

	PatternType    string `json:"pattern_type"` // PHONE, EMAIL, SNS, URL, MESSENGER
	MaskedValue    string `json:"masked_value"`
	ActionTaken    string `json:"action_taken"`
	ViolationCount int    `json:"violation_count"`

	CreatedAt time.Time `json:"created_at"`
}
