package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchMessage belongs to exactly one Match. Immutable once created except
// for read state. Content is stored already masked; when contact info was
// detected the pre-mask original is kept in FilteredContent for audit.
// Stored in engine_match_messages table.
type MatchMessage struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	MatchID  uuid.UUID `json:"match_id"`
	SenderID uuid.UUID `json:"sender_id"`

	Content             string `json:"content"`
	FilteredContent     string `json:"-"` // pre-mask original, audit only, never serialized
	ContainsContactInfo bool   `json:"contains_contact_info"`

	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
