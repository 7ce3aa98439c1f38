package models

import (
	"time"

	"github.com/google/uuid"
)

// Grant levels mirror the visibility tiers above MINIMAL.
const (
	GrantLevelPartial = "PARTIAL"
	GrantLevelFull    = "FULL"
)

// AccessGrant is a read model populated by the external payment flow. The
// engine only consults level and expiry; it never writes grants.
// Stored in engine_access_grants table.
type AccessGrant struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	ListingID uuid.UUID  `json:"listing_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Level     string     `json:"level"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil = never expires
	CreatedAt time.Time  `json:"created_at"`
}

// IsValid reports whether the grant is usable at instant now.
func (g *AccessGrant) IsValid(now time.Time) bool {
	if g.Level != GrantLevelPartial && g.Level != GrantLevelFull {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
