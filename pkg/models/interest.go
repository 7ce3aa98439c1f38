package models

import (
	"time"

	"github.com/google/uuid"
)

// Interest direction values
const (
	InterestPharmacistToListing = "PHARMACIST_TO_LISTING" // buyer -> seller listing
	InterestListingToPharmacist = "LISTING_TO_PHARMACIST" // seller -> buyer profile
)

// Interest is a directed expression of interest between one listing and one
// profile. At most one Interest exists per (listing, profile, direction)
// triple; duplicates are rejected, not merged.
// Stored in engine_interests table.
type Interest struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	ListingID uuid.UUID `json:"listing_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	UserID    uuid.UUID `json:"user_id"` // acting user
	Direction string    `json:"direction"`
	Message   string    `json:"message,omitempty"` // optional note, PII-masked
	CreatedAt time.Time `json:"created_at"`
}

// OppositeDirection returns the reciprocal direction for mutual-match lookup.
func OppositeDirection(direction string) string {
	if direction == InterestPharmacistToListing {
		return InterestListingToPharmacist
	}
	return InterestPharmacistToListing
}

// IsValidInterestDirection reports whether d is a known direction.
func IsValidInterestDirection(d string) bool {
	return d == InterestPharmacistToListing || d == InterestListingToPharmacist
}
