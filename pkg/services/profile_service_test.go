package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/visibility"
)

type profileTestEnv struct {
	repo    *mockProfileRepo
	matches *mockMatchRepo
	service ProfileService
	userID  uuid.UUID
}

func newProfileTestEnv(t *testing.T) *profileTestEnv {
	t.Helper()

	env := &profileTestEnv{
		repo:   newMockProfileRepo(),
		userID: uuid.New(),
	}
	env.matches = newMockMatchRepo(newMockListingRepo(), env.repo)
	env.service = NewProfileService(env.repo, env.matches, zap.NewNop())
	return env
}

func (env *profileTestEnv) create(t *testing.T) *models.PharmacistProfile {
	t.Helper()
	profile := scoringProfile()
	profile.TenantID = uuid.New()
	profile.UserID = env.userID
	profile.Name = "홍길동"
	profile.Phone = "010-1234-5678"
	require.NoError(t, env.service.CreateProfile(context.Background(), profile))
	return profile
}

func TestCreateProfile(t *testing.T) {
	env := newProfileTestEnv(t)
	profile := env.create(t)

	assert.True(t, profile.IsActive)
	assert.True(t, strings.HasPrefix(profile.AnonymousID, "PRF-"))
}

func TestCreateProfile_OneActivePerUser(t *testing.T) {
	env := newProfileTestEnv(t)
	env.create(t)

	second := scoringProfile()
	second.UserID = env.userID
	err := env.service.CreateProfile(context.Background(), second)
	assert.ErrorIs(t, err, apperrors.ErrProfileExists)
}

func TestCreateProfile_AllowedAfterDeactivation(t *testing.T) {
	env := newProfileTestEnv(t)
	ctx := context.Background()
	profile := env.create(t)

	require.NoError(t, env.service.DeactivateProfile(ctx, env.userID, profile.ID))

	second := scoringProfile()
	second.UserID = env.userID
	assert.NoError(t, env.service.CreateProfile(ctx, second))
}

func TestCreateProfile_MasksIntroduction(t *testing.T) {
	env := newProfileTestEnv(t)

	profile := scoringProfile()
	profile.UserID = env.userID
	profile.Introduction = "카톡 아이디 pharmseller 입니다"
	require.NoError(t, env.service.CreateProfile(context.Background(), profile))

	assert.NotContains(t, profile.Introduction, "pharmseller")
	assert.Contains(t, profile.Introduction, "[SNS 감지됨]")
}

func TestCreateProfile_Validation(t *testing.T) {
	env := newProfileTestEnv(t)

	tests := []struct {
		name   string
		mutate func(*models.PharmacistProfile)
	}{
		{"no preferred regions", func(p *models.PharmacistProfile) { p.PreferredRegions = nil }},
		{"inverted budget range", func(p *models.PharmacistProfile) { p.BudgetMax = p.BudgetMin - 1 }},
		{"inverted area range", func(p *models.PharmacistProfile) { p.PreferredAreaMax = p.PreferredAreaMin - 1 }},
		{"inverted revenue range", func(p *models.PharmacistProfile) { p.PreferredRevenueMax = p.PreferredRevenueMin - 1 }},
		{"negative experience", func(p *models.PharmacistProfile) { p.ExperienceYears = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := scoringProfile()
			profile.UserID = uuid.New()
			tt.mutate(profile)
			err := env.service.CreateProfile(context.Background(), profile)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestUpdateProfile_OwnerOnly(t *testing.T) {
	env := newProfileTestEnv(t)
	profile := env.create(t)

	err := env.service.UpdateProfile(context.Background(), uuid.New(), profile)
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetProfile_OwnerSeesFull(t *testing.T) {
	env := newProfileTestEnv(t)
	profile := env.create(t)

	out, tier, err := env.service.GetProfile(context.Background(), env.userID, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierFull, tier)
	assert.Equal(t, "홍길동", out["name"])
}

func TestGetProfile_StrangerSeesMinimal(t *testing.T) {
	env := newProfileTestEnv(t)
	profile := env.create(t)

	out, tier, err := env.service.GetProfile(context.Background(), uuid.New(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierMinimal, tier)
	assert.NotContains(t, out, "name")
	assert.NotContains(t, out, "phone")
	assert.NotContains(t, out, "budget_max")
}

func TestGetProfile_RevealedMatchGrantsFull(t *testing.T) {
	env := newProfileTestEnv(t)
	ctx := context.Background()
	profile := env.create(t)

	sellerID := uuid.New()
	listing := scoringListing()
	listing.OwnerID = sellerID
	listing.Status = models.ListingStatusActive
	env.matches.listings.add(listing)

	now := time.Now()
	require.NoError(t, env.matches.Create(ctx, &models.Match{
		ListingID:         listing.ID,
		ProfileID:         profile.ID,
		Status:            models.MatchStatusMutual,
		ContactRevealedAt: &now,
	}))

	out, tier, err := env.service.GetProfile(ctx, sellerID, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierFull, tier)
	assert.Equal(t, "010-1234-5678", out["phone"])
}

func TestGetOwnProfile(t *testing.T) {
	env := newProfileTestEnv(t)
	profile := env.create(t)

	got, err := env.service.GetOwnProfile(context.Background(), env.userID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)

	_, err = env.service.GetOwnProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeactivateProfile_OwnerOnly(t *testing.T) {
	env := newProfileTestEnv(t)
	profile := env.create(t)

	err := env.service.DeactivateProfile(context.Background(), uuid.New(), profile.ID)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, env.service.DeactivateProfile(context.Background(), env.userID, profile.ID))
	assert.False(t, profile.IsActive)
}
