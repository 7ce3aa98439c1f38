package models

import (
	"time"

	"github.com/google/uuid"
)

// Match status values. MUTUAL -> CHATTING -> MEETING -> CONTRACTED is the
// success path; CANCELLED is terminal from any non-terminal state and
// requires a reason. CHATTING is only ever entered as a side effect of the
// first message, never by an explicit status update.
const (
	MatchStatusMutual     = "MUTUAL"
	MatchStatusChatting   = "CHATTING"
	MatchStatusMeeting    = "MEETING"
	MatchStatusContracted = "CONTRACTED"
	MatchStatusCancelled  = "CANCELLED"
)

// ScoreBreakdown holds the per-dimension components of a compatibility
// score. Frozen at match creation; never recomputed.
type ScoreBreakdown struct {
	Region       float64 `json:"region"`
	Budget       float64 `json:"budget"`
	Size         float64 `json:"size"`
	Revenue      float64 `json:"revenue"`
	PharmacyType float64 `json:"pharmacy_type"`
	Experience   float64 `json:"experience"`
}

// Total sums the dimension components.
func (b ScoreBreakdown) Total() float64 {
	return b.Region + b.Budget + b.Size + b.Revenue + b.PharmacyType + b.Experience
}

// Match is created when both directions of Interest exist for the same
// (listing, profile) pair. The pair is unique: the engine_matches table
// carries a unique index on (listing_id, profile_id) so concurrent
// express-interest calls cannot create duplicates.
// Stored in engine_matches table.
type Match struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`

	ListingID          uuid.UUID `json:"listing_id"`
	ProfileID          uuid.UUID `json:"profile_id"`
	BuyerInterestID    uuid.UUID `json:"buyer_interest_id"`
	SellerInterestID   uuid.UUID `json:"seller_interest_id"`

	MatchScore     float64        `json:"match_score"` // 0-100, frozen at creation
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`

	Status           string     `json:"status"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
	ContactRevealedAt *time.Time `json:"contact_revealed_at,omitempty"`
	FirstMessageAt   *time.Time `json:"first_message_at,omitempty"`
	MeetingAt        *time.Time `json:"meeting_at,omitempty"`
	ContractedAt     *time.Time `json:"contracted_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the match can no longer change state.
func (m *Match) IsTerminal() bool {
	return m.Status == MatchStatusContracted || m.Status == MatchStatusCancelled
}

// CanMessage reports whether the match accepts new chat messages.
func (m *Match) CanMessage() bool {
	switch m.Status {
	case MatchStatusMutual, MatchStatusChatting, MatchStatusMeeting:
		return true
	}
	return false
}

// InvolvesUser reports whether userID owns either side of the match.
// Callers resolve the listing owner and profile owner before calling.
func (m *Match) InvolvesUser(listingOwner, profileOwner, userID uuid.UUID) bool {
	return userID == listingOwner || userID == profileOwner
}

// MatchContracted is the domain event raised when a match transitions to
// CONTRACTED. Handled synchronously within the same transaction: the owning
// listing moves to MATCHED.
type MatchContracted struct {
	MatchID      uuid.UUID
	ListingID    uuid.UUID
	ContractedAt time.Time
}
