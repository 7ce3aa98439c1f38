package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

func TestResolveTier(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name            string
		isOwner         bool
		grant           *models.AccessGrant
		contactRevealed bool
		want            Tier
	}{
		{"owner always full", true, nil, false, TierFull},
		{"owner ignores grants", true, &models.AccessGrant{Level: models.GrantLevelPartial}, false, TierFull},
		{"contact revealed bypasses grants", false, nil, true, TierFull},
		{"no grant", false, nil, false, TierMinimal},
		{"partial grant", false, &models.AccessGrant{Level: models.GrantLevelPartial, ExpiresAt: &future}, false, TierPartial},
		{"full grant", false, &models.AccessGrant{Level: models.GrantLevelFull, ExpiresAt: &future}, false, TierFull},
		{"expired grant falls back", false, &models.AccessGrant{Level: models.GrantLevelFull, ExpiresAt: &past}, false, TierMinimal},
		{"nil expiry never expires", false, &models.AccessGrant{Level: models.GrantLevelPartial}, false, TierPartial},
		{"unknown level is minimal", false, &models.AccessGrant{Level: "VIP", ExpiresAt: &future}, false, TierMinimal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTier(tt.isOwner, tt.grant, tt.contactRevealed, now))
		})
	}
}

func testListing() *models.AnonymousListing {
	return &models.AnonymousListing{
		AnonymousID:  "LST-11010-7KQ3ZM2W",
		RegionCode:   "11010",
		RegionName:   "서울 종로구",
		PharmacyType: "일반약국",
		PremiumMin:   50_000_000,
		PremiumMax:   100_000_000,
		Deposit:      50_000_000,
		RevenueMin:   40_000_000,
		RevenueMax:   60_000_000,
		AreaMin:      10,
		AreaMax:      20,
		Description:  "역세권 약국입니다",
		ExactAddress: "서울시 종로구 세종대로 1",
		PharmacyName: "종로온누리약국",
		OwnerPhone:   "010-1234-5678",
		Status:       models.ListingStatusActive,
	}
}

func TestProjectListing_Minimal(t *testing.T) {
	out := ProjectListing(testListing(), TierMinimal)

	assert.Equal(t, "LST-11010-7KQ3ZM2W", out["anonymous_id"])
	assert.Equal(t, "11010", out["region_code"])
	assert.Equal(t, 10.0, out["area_min"])

	assert.NotContains(t, out, "premium_max")
	assert.NotContains(t, out, "description")
	assert.NotContains(t, out, "exact_address")
	assert.NotContains(t, out, "owner_phone")

	locked, ok := out[LockedFieldsKey].([]string)
	require.True(t, ok)
	assert.Contains(t, locked, "premium_max")
	assert.Contains(t, locked, "exact_address")
	assert.Contains(t, locked, "owner_phone")
}

func TestProjectListing_Partial(t *testing.T) {
	out := ProjectListing(testListing(), TierPartial)

	assert.Equal(t, int64(100_000_000), out["premium_max"])
	assert.Equal(t, "역세권 약국입니다", out["description"])

	assert.NotContains(t, out, "exact_address")
	assert.NotContains(t, out, "pharmacy_name")

	locked, ok := out[LockedFieldsKey].([]string)
	require.True(t, ok)
	assert.Contains(t, locked, "exact_address")
	assert.NotContains(t, locked, "premium_max")
}

func TestProjectListing_Full(t *testing.T) {
	out := ProjectListing(testListing(), TierFull)

	assert.Equal(t, "서울시 종로구 세종대로 1", out["exact_address"])
	assert.Equal(t, "종로온누리약국", out["pharmacy_name"])
	assert.Equal(t, "010-1234-5678", out["owner_phone"])
	assert.NotContains(t, out, LockedFieldsKey)
}

func testProfile() *models.PharmacistProfile {
	return &models.PharmacistProfile{
		AnonymousID:             "PRF-7KQ3ZM2W",
		PreferredRegions:        []string{"11010"},
		PreferredPharmacyTypes:  []string{"일반약국"},
		ExperienceYears:         5,
		HasManagementExperience: true,
		BudgetMin:               100_000_000,
		BudgetMax:               200_000_000,
		Introduction:            "성실한 약사입니다",
		Name:                    "홍길동",
		Phone:                   "010-1234-5678",
		Email:                   "hong@example.com",
		LicenseNumber:           "12345",
		IsActive:                true,
	}
}

func TestProjectProfile_Minimal(t *testing.T) {
	out := ProjectProfile(testProfile(), TierMinimal)

	assert.Equal(t, "PRF-7KQ3ZM2W", out["anonymous_id"])
	assert.Equal(t, 5, out["experience_years"])

	assert.NotContains(t, out, "budget_max")
	assert.NotContains(t, out, "introduction")
	assert.NotContains(t, out, "name")
	assert.NotContains(t, out, "phone")
	assert.NotContains(t, out, "license_number")

	locked, ok := out[LockedFieldsKey].([]string)
	require.True(t, ok)
	assert.Contains(t, locked, "name")
	assert.Contains(t, locked, "budget_max")
}

func TestProjectProfile_Partial(t *testing.T) {
	out := ProjectProfile(testProfile(), TierPartial)

	assert.Equal(t, int64(200_000_000), out["budget_max"])
	assert.Equal(t, "성실한 약사입니다", out["introduction"])

	assert.NotContains(t, out, "name")
	assert.NotContains(t, out, "phone")
	assert.NotContains(t, out, "email")
}

func TestProjectProfile_Full(t *testing.T) {
	out := ProjectProfile(testProfile(), TierFull)

	assert.Equal(t, "홍길동", out["name"])
	assert.Equal(t, "010-1234-5678", out["phone"])
	assert.Equal(t, "hong@example.com", out["email"])
	assert.NotContains(t, out, LockedFieldsKey)
}
