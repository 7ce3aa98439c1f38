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
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
	"github.com/yakmate-inc/yakmate-engine/pkg/visibility"
)

type listingTestEnv struct {
	repo    *mockListingRepo
	grants  *mockGrantRepo
	matches *mockMatchRepo
	service ListingService
	ownerID uuid.UUID
}

func newListingTestEnv(t *testing.T) *listingTestEnv {
	t.Helper()

	env := &listingTestEnv{
		repo:    newMockListingRepo(),
		grants:  newMockGrantRepo(),
		ownerID: uuid.New(),
	}
	profiles := newMockProfileRepo()
	env.matches = newMockMatchRepo(env.repo, profiles)
	env.service = NewListingService(env.repo, env.grants, env.matches, 90*24*time.Hour, zap.NewNop())
	return env
}

func (env *listingTestEnv) create(t *testing.T) *models.AnonymousListing {
	t.Helper()
	listing := scoringListing()
	listing.TenantID = uuid.New()
	listing.OwnerID = env.ownerID
	listing.ExactAddress = "서울시 종로구 세종대로 1"
	listing.PharmacyName = "종로온누리약국"
	require.NoError(t, env.service.CreateListing(context.Background(), listing))
	return listing
}

func TestCreateListing(t *testing.T) {
	env := newListingTestEnv(t)
	listing := env.create(t)

	assert.Equal(t, models.ListingStatusActive, listing.Status)
	assert.True(t, strings.HasPrefix(listing.AnonymousID, "LST-11010-"))
	assert.WithinDuration(t, time.Now().Add(90*24*time.Hour), listing.ExpiresAt, time.Minute)
}

func TestCreateListing_MasksDescription(t *testing.T) {
	env := newListingTestEnv(t)

	listing := scoringListing()
	listing.OwnerID = env.ownerID
	listing.Description = "문의 010-1234-5678"
	require.NoError(t, env.service.CreateListing(context.Background(), listing))

	assert.Equal(t, "문의 [PHONE 감지됨]", listing.Description)
}

func TestCreateListing_Validation(t *testing.T) {
	env := newListingTestEnv(t)

	tests := []struct {
		name   string
		mutate func(*models.AnonymousListing)
	}{
		{"missing region", func(l *models.AnonymousListing) { l.RegionCode = "" }},
		{"missing type", func(l *models.AnonymousListing) { l.PharmacyType = "" }},
		{"inverted premium range", func(l *models.AnonymousListing) { l.PremiumMax = l.PremiumMin - 1 }},
		{"negative deposit", func(l *models.AnonymousListing) { l.Deposit = -1 }},
		{"inverted revenue range", func(l *models.AnonymousListing) { l.RevenueMax = l.RevenueMin - 1 }},
		{"inverted area range", func(l *models.AnonymousListing) { l.AreaMax = l.AreaMin - 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := scoringListing()
			listing.OwnerID = env.ownerID
			tt.mutate(listing)
			err := env.service.CreateListing(context.Background(), listing)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestUpdateListing_OwnerAndStatusChecks(t *testing.T) {
	env := newListingTestEnv(t)
	ctx := context.Background()
	listing := env.create(t)

	err := env.service.UpdateListing(ctx, uuid.New(), listing)
	assert.True(t, apperrors.IsValidation(err))

	listing.Status = models.ListingStatusWithdrawn
	err = env.service.UpdateListing(ctx, env.ownerID, listing)
	assert.True(t, apperrors.IsValidation(err))
}

func TestWithdrawListing(t *testing.T) {
	env := newListingTestEnv(t)
	ctx := context.Background()
	listing := env.create(t)

	require.NoError(t, env.service.WithdrawListing(ctx, env.ownerID, listing.ID))

	stored, err := env.repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusWithdrawn, stored.Status)

	// A withdrawn listing cannot be withdrawn twice.
	err = env.service.WithdrawListing(ctx, env.ownerID, listing.ID)
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetListing_OwnerSeesFull(t *testing.T) {
	env := newListingTestEnv(t)
	listing := env.create(t)

	out, tier, err := env.service.GetListing(context.Background(), env.ownerID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierFull, tier)
	assert.Equal(t, "서울시 종로구 세종대로 1", out["exact_address"])
}

func TestGetListing_StrangerSeesMinimal(t *testing.T) {
	env := newListingTestEnv(t)
	listing := env.create(t)

	out, tier, err := env.service.GetListing(context.Background(), uuid.New(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierMinimal, tier)
	assert.NotContains(t, out, "exact_address")
	assert.NotContains(t, out, "premium_max")
}

func TestGetListing_GrantRaisesTier(t *testing.T) {
	env := newListingTestEnv(t)
	listing := env.create(t)
	viewerID := uuid.New()

	env.grants.add(&models.AccessGrant{
		ListingID: listing.ID,
		UserID:    viewerID,
		Level:     models.GrantLevelPartial,
	})

	out, tier, err := env.service.GetListing(context.Background(), viewerID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierPartial, tier)
	assert.Contains(t, out, "premium_max")
	assert.NotContains(t, out, "exact_address")
}

func TestGetListing_ExpiredGrantFallsBack(t *testing.T) {
	env := newListingTestEnv(t)
	listing := env.create(t)
	viewerID := uuid.New()

	past := time.Now().Add(-time.Hour)
	env.grants.add(&models.AccessGrant{
		ListingID: listing.ID,
		UserID:    viewerID,
		Level:     models.GrantLevelFull,
		ExpiresAt: &past,
	})

	_, tier, err := env.service.GetListing(context.Background(), viewerID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierMinimal, tier)
}

func TestGetListing_RevealedMatchGrantsFull(t *testing.T) {
	env := newListingTestEnv(t)
	ctx := context.Background()
	listing := env.create(t)

	buyerID := uuid.New()
	profiles := env.matches.profiles
	profile := scoringProfile()
	profile.UserID = buyerID
	profile.IsActive = true
	profiles.add(profile)

	now := time.Now()
	require.NoError(t, env.matches.Create(ctx, &models.Match{
		ListingID:         listing.ID,
		ProfileID:         profile.ID,
		Status:            models.MatchStatusMutual,
		ContactRevealedAt: &now,
	}))

	out, tier, err := env.service.GetListing(ctx, buyerID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierFull, tier)
	assert.Equal(t, "종로온누리약국", out["pharmacy_name"])
}

func TestGetListing_CancelledMatchDoesNotReveal(t *testing.T) {
	env := newListingTestEnv(t)
	ctx := context.Background()
	listing := env.create(t)

	buyerID := uuid.New()
	profile := scoringProfile()
	profile.UserID = buyerID
	profile.IsActive = true
	env.matches.profiles.add(profile)

	now := time.Now()
	require.NoError(t, env.matches.Create(ctx, &models.Match{
		ListingID:         listing.ID,
		ProfileID:         profile.ID,
		Status:            models.MatchStatusCancelled,
		ContactRevealedAt: &now,
	}))

	_, tier, err := env.service.GetListing(ctx, buyerID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, visibility.TierMinimal, tier)
}

func TestSearchListings_MinimalForStrangers(t *testing.T) {
	env := newListingTestEnv(t)
	env.create(t)

	results, total, err := env.service.SearchListings(context.Background(), uuid.New(), repositories.ListingFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.NotContains(t, results[0], "exact_address")

	// The owner sees their own listing in full even in search.
	results, _, err = env.service.SearchListings(context.Background(), env.ownerID, repositories.ListingFilter{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "exact_address")
}

func TestExpireStaleListings(t *testing.T) {
	env := newListingTestEnv(t)
	ctx := context.Background()

	stale := env.create(t)
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	fresh := env.create(t)

	expired, err := env.service.ExpireStaleListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	stored, _ := env.repo.GetByID(ctx, stale.ID)
	assert.Equal(t, models.ListingStatusExpired, stored.Status)
	stored, _ = env.repo.GetByID(ctx, fresh.ID)
	assert.Equal(t, models.ListingStatusActive, stored.Status)
}
