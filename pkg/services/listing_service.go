package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/privacy"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
	"github.com/yakmate-inc/yakmate-engine/pkg/visibility"
)

// ListingService provides operations for anonymous listings. Every read
// path for non-owners goes through the visibility projection; raw listing
// structs never leave this service for a non-owner.
type ListingService interface {
	CreateListing(ctx context.Context, listing *models.AnonymousListing) error
	UpdateListing(ctx context.Context, userID uuid.UUID, listing *models.AnonymousListing) error
	WithdrawListing(ctx context.Context, userID, listingID uuid.UUID) error
	GetListing(ctx context.Context, viewerID, listingID uuid.UUID) (map[string]any, visibility.Tier, error)
	SearchListings(ctx context.Context, viewerID uuid.UUID, filter repositories.ListingFilter, limit, offset int) ([]map[string]any, int, error)
	// ExpireStaleListings flips listings past their TTL to EXPIRED. Run
	// from the periodic sweep, not from request handling.
	ExpireStaleListings(ctx context.Context) (int64, error)
}

type listingService struct {
	repo       repositories.ListingRepository
	grantRepo  repositories.GrantRepository
	matchRepo  repositories.MatchRepository
	listingTTL time.Duration
	logger     *zap.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(
	repo repositories.ListingRepository,
	grantRepo repositories.GrantRepository,
	matchRepo repositories.MatchRepository,
	listingTTL time.Duration,
	logger *zap.Logger,
) ListingService {
	return &listingService{
		repo:       repo,
		grantRepo:  grantRepo,
		matchRepo:  matchRepo,
		listingTTL: listingTTL,
		logger:     logger.Named("listing-service"),
	}
}

var _ ListingService = (*listingService)(nil)

func (s *listingService) CreateListing(ctx context.Context, listing *models.AnonymousListing) error {
	if err := validateListing(listing); err != nil {
		return err
	}

	anonymousID, err := privacy.GenerateAnonymousID(privacy.KindListing, listing.RegionCode)
	if err != nil {
		return fmt.Errorf("failed to generate anonymous id: %w", err)
	}
	listing.AnonymousID = anonymousID

	// Free text is scrubbed at write time so raw contact details never
	// reach storage.
	listing.Description = privacy.MaskPersonalInfo(listing.Description)

	listing.Status = models.ListingStatusActive
	listing.ExpiresAt = time.Now().Add(s.listingTTL)

	if err := s.repo.Create(ctx, listing); err != nil {
		s.logger.Error("Failed to create listing",
			zap.String("owner_id", listing.OwnerID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("anonymous_id", listing.AnonymousID),
		zap.String("region_code", listing.RegionCode))
	return nil
}

func (s *listingService) UpdateListing(ctx context.Context, userID uuid.UUID, listing *models.AnonymousListing) error {
	existing, err := s.repo.GetByID(ctx, listing.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.ErrNotFound
	}
	if existing.OwnerID != userID {
		return apperrors.Validationf("only the owner can update a listing")
	}
	if existing.Status != models.ListingStatusActive {
		return apperrors.Validationf("listing is %s and can no longer be updated", existing.Status)
	}
	if err := validateListing(listing); err != nil {
		return err
	}

	listing.Description = privacy.MaskPersonalInfo(listing.Description)

	if err := s.repo.Update(ctx, listing); err != nil {
		s.logger.Error("Failed to update listing",
			zap.String("listing_id", listing.ID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *listingService) WithdrawListing(ctx context.Context, userID, listingID uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.ErrNotFound
	}
	if existing.OwnerID != userID {
		return apperrors.Validationf("only the owner can withdraw a listing")
	}
	if existing.Status != models.ListingStatusActive {
		return apperrors.Validationf("listing is %s and cannot be withdrawn", existing.Status)
	}

	if err := s.repo.UpdateStatus(ctx, listingID, models.ListingStatusWithdrawn); err != nil {
		return err
	}

	s.logger.Info("Listing withdrawn", zap.String("listing_id", listingID.String()))
	return nil
}

func (s *listingService) GetListing(ctx context.Context, viewerID, listingID uuid.UUID) (map[string]any, visibility.Tier, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, "", err
	}
	if listing == nil {
		return nil, "", apperrors.ErrNotFound
	}

	now := time.Now()
	isOwner := listing.OwnerID == viewerID

	var grant *models.AccessGrant
	contactRevealed := false
	if !isOwner {
		grant, err = s.grantRepo.GetForListing(ctx, listingID, viewerID)
		if err != nil {
			return nil, "", err
		}
		contactRevealed, err = s.hasRevealedMatch(ctx, viewerID, listingID)
		if err != nil {
			return nil, "", err
		}
	}

	tier := visibility.ResolveTier(isOwner, grant, contactRevealed, now)
	return visibility.ProjectListing(listing, tier), tier, nil
}

func (s *listingService) SearchListings(ctx context.Context, viewerID uuid.UUID, filter repositories.ListingFilter, limit, offset int) ([]map[string]any, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	listings, total, err := s.repo.Search(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("Failed to search listings", zap.Error(err))
		return nil, 0, err
	}

	// Search results are projected at MINIMAL for everyone except the
	// owner. Grant-based tiers apply on the detail view only.
	results := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		tier := visibility.TierMinimal
		if l.OwnerID == viewerID {
			tier = visibility.TierFull
		}
		results = append(results, visibility.ProjectListing(l, tier))
	}

	return results, total, nil
}

func (s *listingService) ExpireStaleListings(ctx context.Context) (int64, error) {
	expired, err := s.repo.ExpireStale(ctx, time.Now())
	if err != nil {
		s.logger.Error("Listing expiry sweep failed", zap.Error(err))
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("Listing expiry sweep completed", zap.Int64("expired", expired))
	}
	return expired, nil
}

// hasRevealedMatch reports whether the viewer sits on a match against this
// listing whose contact details are already released.
func (s *listingService) hasRevealedMatch(ctx context.Context, viewerID, listingID uuid.UUID) (bool, error) {
	matches, err := s.matchRepo.ListByUser(ctx, viewerID)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.ListingID == listingID && m.ContactRevealedAt != nil && m.Status != models.MatchStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func validateListing(l *models.AnonymousListing) error {
	if l.RegionCode == "" {
		return apperrors.Validationf("region_code is required")
	}
	if l.PharmacyType == "" {
		return apperrors.Validationf("pharmacy_type is required")
	}
	if l.PremiumMin < 0 || l.PremiumMax < l.PremiumMin {
		return apperrors.Validationf("invalid premium range")
	}
	if l.Deposit < 0 || l.MonthlyRentFee < 0 {
		return apperrors.Validationf("deposit and monthly rent must not be negative")
	}
	if l.RevenueMin < 0 || l.RevenueMax < l.RevenueMin {
		return apperrors.Validationf("invalid revenue range")
	}
	if l.AreaMin < 0 || l.AreaMax < l.AreaMin {
		return apperrors.Validationf("invalid area range")
	}
	return nil
}
