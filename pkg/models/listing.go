package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing status values
const (
	ListingStatusActive    = "ACTIVE"
	ListingStatusMatched   = "MATCHED"   // A match on this listing reached CONTRACTED
	ListingStatusWithdrawn = "WITHDRAWN" // Owner pulled the listing
	ListingStatusExpired   = "EXPIRED"   // Passed the 90-day TTL
)

// ListingTTL is how long a listing stays ACTIVE from creation.
const ListingTTL = 90 * 24 * time.Hour

// AnonymousListing is a seller-side pharmacy-transfer offer.
// Public-tier fields carry ranges, never exact figures; private-tier fields
// (address, pharmacy name, owner phone, coordinates) are only released through
// the visibility projection or a mutual match.
// Stored in engine_listings table.
type AnonymousListing struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	AnonymousID string    `json:"anonymous_id"`

	// Public tier
	RegionCode     string `json:"region_code"` // 5-digit administrative code, e.g. "11010"
	RegionName     string `json:"region_name"`
	PharmacyType   string `json:"pharmacy_type"`
	PremiumMin     int64  `json:"premium_min"` // KRW
	PremiumMax     int64  `json:"premium_max"`
	Deposit        int64  `json:"deposit"`
	MonthlyRentFee int64  `json:"monthly_rent_fee"`
	RevenueMin     int64  `json:"revenue_min"` // monthly, KRW
	RevenueMax     int64  `json:"revenue_max"`
	AreaMin        float64 `json:"area_min"` // pyeong
	AreaMax        float64 `json:"area_max"`
	StaffCount     int     `json:"staff_count"`
	NearbyHospital bool    `json:"nearby_hospital"`
	Description    string  `json:"description"` // PII-masked at write time

	// Private tier
	ExactAddress string   `json:"exact_address,omitempty"`
	PharmacyName string   `json:"pharmacy_name,omitempty"`
	OwnerPhone   string   `json:"owner_phone,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalCost is the buyer-facing acquisition cost used by budget scoring.
func (l *AnonymousListing) TotalCost() int64 {
	return l.PremiumMax + l.Deposit
}

// AverageArea returns the midpoint of the published area range.
func (l *AnonymousListing) AverageArea() float64 {
	return (l.AreaMin + l.AreaMax) / 2
}

// AverageRevenue returns the midpoint of the published revenue range.
func (l *AnonymousListing) AverageRevenue() int64 {
	return (l.RevenueMin + l.RevenueMax) / 2
}

// IsValidListingStatus reports whether s is a known listing status.
func IsValidListingStatus(s string) bool {
	switch s {
	case ListingStatusActive, ListingStatusMatched, ListingStatusWithdrawn, ListingStatusExpired:
		return true
	}
	return false
}
