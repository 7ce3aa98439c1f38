package services

import (
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// Dimension maxima. The six dimensions sum to at most 100.
const (
	regionMaxScore     = 25.0
	budgetMaxScore     = 25.0
	sizeMaxScore       = 15.0
	revenueMaxScore    = 15.0
	typeMaxScore       = 10.0
	experienceMaxScore = 10.0

	// Same top-level administrative code (first two characters of the
	// 5-digit region code) but different sub-region.
	regionPartialScore = 15.0

	// Listing cheaper than the buyer is willing to pay is near-full, not
	// penalized.
	budgetUnderScore = 20.0

	// Revenue above the buyer's expected range is a mild positive.
	revenueAboveScore = 12.0
)

// CalculateMatchScore computes the weighted compatibility score between one
// listing and one profile. Deterministic and pure: identical inputs always
// yield the identical total and breakdown. The breakdown is persisted and
// frozen when a match is created.
func CalculateMatchScore(listing *models.AnonymousListing, profile *models.PharmacistProfile) (float64, models.ScoreBreakdown) {
	breakdown := models.ScoreBreakdown{
		Region:       regionScore(listing, profile),
		Budget:       budgetScore(listing, profile),
		Size:         sizeScore(listing, profile),
		Revenue:      revenueScore(listing, profile),
		PharmacyType: typeScore(listing, profile),
		Experience:   experienceScore(profile),
	}
	return breakdown.Total(), breakdown
}

func regionScore(listing *models.AnonymousListing, profile *models.PharmacistProfile) float64 {
	if profile.PrefersRegion(listing.RegionCode) {
		return regionMaxScore
	}
	if len(listing.RegionCode) >= 2 {
		top := listing.RegionCode[:2]
		for _, r := range profile.PreferredRegions {
			if len(r) >= 2 && r[:2] == top {
				return regionPartialScore
			}
		}
	}
	return 0
}

func budgetScore(listing *models.AnonymousListing, profile *models.PharmacistProfile) float64 {
	total := listing.TotalCost()
	if total >= profile.BudgetMin && total <= profile.BudgetMax {
		return budgetMaxScore
	}
	if total < profile.BudgetMin {
		return budgetUnderScore
	}
	// Over budget: linear decay in the overage ratio, floored at 0.
	if profile.BudgetMax <= 0 {
		return 0
	}
	over := float64(total-profile.BudgetMax) / float64(profile.BudgetMax)
	score := budgetMaxScore * (1 - over)
	if score < 0 {
		return 0
	}
	return score
}

func sizeScore(listing *models.AnonymousListing, profile *models.PharmacistProfile) float64 {
	avg := listing.AverageArea()
	if avg >= profile.PreferredAreaMin && avg <= profile.PreferredAreaMax {
		return sizeMaxScore
	}
	var distance float64
	if avg < profile.PreferredAreaMin {
		distance = profile.PreferredAreaMin - avg
	} else {
		distance = avg - profile.PreferredAreaMax
	}
	score := sizeMaxScore - distance
	if score < 0 {
		return 0
	}
	return score
}

func revenueScore(listing *models.AnonymousListing, profile *models.PharmacistProfile) float64 {
	avg := listing.AverageRevenue()
	if avg >= profile.PreferredRevenueMin && avg <= profile.PreferredRevenueMax {
		return revenueMaxScore
	}
	if avg > profile.PreferredRevenueMax {
		return revenueAboveScore
	}
	return 0
}

func typeScore(listing *models.AnonymousListing, profile *models.PharmacistProfile) float64 {
	if profile.PrefersPharmacyType(listing.PharmacyType) {
		return typeMaxScore
	}
	return 0
}

func experienceScore(profile *models.PharmacistProfile) float64 {
	if profile.HasManagementExperience {
		return experienceMaxScore
	}
	switch {
	case profile.ExperienceYears >= 5:
		return 8
	case profile.ExperienceYears >= 3:
		return 6
	case profile.ExperienceYears >= 1:
		return 4
	default:
		return 0
	}
}
