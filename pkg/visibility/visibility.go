// Package visibility implements the tiered field projection for anonymous
// listings and pharmacist profiles. This is the single point where
// private-tier data can be released; nothing else in the engine reads
// private fields on behalf of a non-owner.
package visibility

import (
	"time"

	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// Tier is the visibility level granted to a viewer.
type Tier string

const (
	TierMinimal Tier = "MINIMAL"
	TierPartial Tier = "PARTIAL"
	TierFull    Tier = "FULL"
)

// LockedFieldsKey is the projection output key listing fields the viewer's
// tier does not include. Locked fields are named, not silently omitted, so
// callers can render upgrade affordances.
const LockedFieldsKey = "locked_fields"

// Field-set mapping, version 1. Each tier is a strict superset of the one
// below it. Changing these sets is a policy change and must bump the
// migration that documents them.
var (
	listingMinimalFields = []string{
		"anonymous_id", "region_code", "region_name", "pharmacy_type",
		"area_min", "area_max", "status", "created_at",
	}
	listingPartialFields = append(listingMinimalFields,
		"premium_min", "premium_max", "deposit", "monthly_rent_fee",
		"revenue_min", "revenue_max", "staff_count", "nearby_hospital",
		"description", "expires_at",
	)
	listingFullFields = append(listingPartialFields,
		"exact_address", "pharmacy_name", "owner_phone", "latitude", "longitude",
	)

	profileMinimalFields = []string{
		"anonymous_id", "preferred_regions", "preferred_pharmacy_types",
		"experience_years", "has_management_experience",
	}
	profilePartialFields = append(profileMinimalFields,
		"budget_min", "budget_max", "preferred_area_min", "preferred_area_max",
		"preferred_revenue_min", "preferred_revenue_max", "specialty_tags",
		"introduction",
	)
	profileFullFields = append(profilePartialFields,
		"name", "phone", "email", "license_number",
	)
)

// ResolveTier determines the viewer's tier for a listing or profile.
// Owners always see FULL. A match with contact revealed sees FULL (the one
// intentional bypass of the grant system). Otherwise the grant decides, and
// an expired or absent grant falls back to MINIMAL.
func ResolveTier(isOwner bool, grant *models.AccessGrant, contactRevealed bool, now time.Time) Tier {
	if isOwner || contactRevealed {
		return TierFull
	}
	if grant == nil || !grant.IsValid(now) {
		return TierMinimal
	}
	if grant.Level == models.GrantLevelFull {
		return TierFull
	}
	return TierPartial
}

// ProjectListing returns the listing's fields visible at tier, with
// remaining field names under locked_fields.
func ProjectListing(l *models.AnonymousListing, tier Tier) map[string]any {
	all := map[string]any{
		"anonymous_id":     l.AnonymousID,
		"region_code":      l.RegionCode,
		"region_name":      l.RegionName,
		"pharmacy_type":    l.PharmacyType,
		"area_min":         l.AreaMin,
		"area_max":         l.AreaMax,
		"status":           l.Status,
		"created_at":       l.CreatedAt,
		"premium_min":      l.PremiumMin,
		"premium_max":      l.PremiumMax,
		"deposit":          l.Deposit,
		"monthly_rent_fee": l.MonthlyRentFee,
		"revenue_min":      l.RevenueMin,
		"revenue_max":      l.RevenueMax,
		"staff_count":      l.StaffCount,
		"nearby_hospital":  l.NearbyHospital,
		"description":      l.Description,
		"expires_at":       l.ExpiresAt,
		"exact_address":    l.ExactAddress,
		"pharmacy_name":    l.PharmacyName,
		"owner_phone":      l.OwnerPhone,
		"latitude":         l.Latitude,
		"longitude":        l.Longitude,
	}
	return project(all, listingTierFields(tier), listingFullFields)
}

// ProjectProfile returns the profile's fields visible at tier.
func ProjectProfile(p *models.PharmacistProfile, tier Tier) map[string]any {
	all := map[string]any{
		"anonymous_id":              p.AnonymousID,
		"preferred_regions":         p.PreferredRegions,
		"preferred_pharmacy_types":  p.PreferredPharmacyTypes,
		"experience_years":          p.ExperienceYears,
		"has_management_experience": p.HasManagementExperience,
		"budget_min":                p.BudgetMin,
		"budget_max":                p.BudgetMax,
		"preferred_area_min":        p.PreferredAreaMin,
		"preferred_area_max":        p.PreferredAreaMax,
		"preferred_revenue_min":     p.PreferredRevenueMin,
		"preferred_revenue_max":     p.PreferredRevenueMax,
		"specialty_tags":            p.SpecialtyTags,
		"introduction":              p.Introduction,
		"name":                      p.Name,
		"phone":                     p.Phone,
		"email":                     p.Email,
		"license_number":            p.LicenseNumber,
	}
	return project(all, profileTierFields(tier), profileFullFields)
}

func listingTierFields(tier Tier) []string {
	switch tier {
	case TierFull:
		return listingFullFields
	case TierPartial:
		return listingPartialFields
	default:
		return listingMinimalFields
	}
}

func profileTierFields(tier Tier) []string {
	switch tier {
	case TierFull:
		return profileFullFields
	case TierPartial:
		return profilePartialFields
	default:
		return profileMinimalFields
	}
}

func project(all map[string]any, visible, universe []string) map[string]any {
	allowed := make(map[string]bool, len(visible))
	for _, f := range visible {
		allowed[f] = true
	}

	out := make(map[string]any, len(visible)+1)
	var locked []string
	for _, f := range universe {
		if allowed[f] {
			out[f] = all[f]
		} else {
			locked = append(locked, f)
		}
	}
	if len(locked) > 0 {
		out[LockedFieldsKey] = locked
	}
	return out
}
