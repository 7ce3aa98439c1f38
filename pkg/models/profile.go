package models

import (
	"time"

	"github.com/google/uuid"
)

// PharmacistProfile is a buyer-side seeker profile. At most one active
// profile exists per user identity; the registry enforces this on create.
// Stored in engine_pharmacist_profiles table.
type PharmacistProfile struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	UserID      uuid.UUID `json:"user_id"`
	AnonymousID string    `json:"anonymous_id"`

	// Public tier
	PreferredRegions        []string `json:"preferred_regions"`
	BudgetMin               int64    `json:"budget_min"` // KRW
	BudgetMax               int64    `json:"budget_max"`
	PreferredAreaMin        float64  `json:"preferred_area_min"` // pyeong
	PreferredAreaMax        float64  `json:"preferred_area_max"`
	PreferredRevenueMin     int64    `json:"preferred_revenue_min"`
	PreferredRevenueMax     int64    `json:"preferred_revenue_max"`
	PreferredPharmacyTypes  []string `json:"preferred_pharmacy_types"`
	ExperienceYears         int      `json:"experience_years"`
	HasManagementExperience bool     `json:"has_management_experience"`
	SpecialtyTags           []string `json:"specialty_tags,omitempty"`
	Introduction            string   `json:"introduction"` // PII-masked at write time

	// Private tier
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrefersRegion reports whether code appears in the profile's region list.
func (p *PharmacistProfile) PrefersRegion(code string) bool {
	for _, r := range p.PreferredRegions {
		if r == code {
			return true
		}
	}
	return false
}

// PrefersPharmacyType reports whether t appears in the preferred type list.
func (p *PharmacistProfile) PrefersPharmacyType(t string) bool {
	for _, pt := range p.PreferredPharmacyTypes {
		if pt == t {
			return true
		}
	}
	return false
}
