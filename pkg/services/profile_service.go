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

// ProfileService provides operations for pharmacist profiles. A user holds
// at most one active profile; creating a second fails with ErrProfileExists.
type ProfileService interface {
	CreateProfile(ctx context.Context, profile *models.PharmacistProfile) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, profile *models.PharmacistProfile) error
	DeactivateProfile(ctx context.Context, userID, profileID uuid.UUID) error
	GetProfile(ctx context.Context, viewerID, profileID uuid.UUID) (map[string]any, visibility.Tier, error)
	GetOwnProfile(ctx context.Context, userID uuid.UUID) (*models.PharmacistProfile, error)
	SearchProfiles(ctx context.Context, viewerID uuid.UUID, filter repositories.ProfileFilter, limit, offset int) ([]map[string]any, int, error)
}

type profileService struct {
	repo      repositories.ProfileRepository
	matchRepo repositories.MatchRepository
	logger    *zap.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repo repositories.ProfileRepository, matchRepo repositories.MatchRepository, logger *zap.Logger) ProfileService {
	return &profileService{
		repo:      repo,
		matchRepo: matchRepo,
		logger:    logger.Named("profile-service"),
	}
}

var _ ProfileService = (*profileService)(nil)

func (s *profileService) CreateProfile(ctx context.Context, profile *models.PharmacistProfile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}

	existing, err := s.repo.GetActiveByUser(ctx, profile.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.ErrProfileExists
	}

	anonymousID, err := privacy.GenerateAnonymousID(privacy.KindProfile, "")
	if err != nil {
		return fmt.Errorf("failed to generate anonymous id: %w", err)
	}
	profile.AnonymousID = anonymousID
	profile.Introduction = privacy.MaskPersonalInfo(profile.Introduction)
	profile.IsActive = true

	if err := s.repo.Create(ctx, profile); err != nil {
		s.logger.Error("Failed to create profile",
			zap.String("user_id", profile.UserID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("Profile created",
		zap.String("profile_id", profile.ID.String()),
		zap.String("anonymous_id", profile.AnonymousID))
	return nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, profile *models.PharmacistProfile) error {
	existing, err := s.repo.GetByID(ctx, profile.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.ErrNotFound
	}
	if existing.UserID != userID {
		return apperrors.Validationf("only the owner can update a profile")
	}
	if !existing.IsActive {
		return apperrors.Validationf("profile is inactive and can no longer be updated")
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	profile.Introduction = privacy.MaskPersonalInfo(profile.Introduction)

	if err := s.repo.Update(ctx, profile); err != nil {
		s.logger.Error("Failed to update profile",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *profileService) DeactivateProfile(ctx context.Context, userID, profileID uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.ErrNotFound
	}
	if existing.UserID != userID {
		return apperrors.Validationf("only the owner can deactivate a profile")
	}

	if err := s.repo.Deactivate(ctx, profileID); err != nil {
		return err
	}

	s.logger.Info("Profile deactivated", zap.String("profile_id", profileID.String()))
	return nil
}

func (s *profileService) GetProfile(ctx context.Context, viewerID, profileID uuid.UUID) (map[string]any, visibility.Tier, error) {
	profile, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, "", err
	}
	if profile == nil {
		return nil, "", apperrors.ErrNotFound
	}

	isOwner := profile.UserID == viewerID
	contactRevealed := false
	if !isOwner {
		contactRevealed, err = s.hasRevealedMatch(ctx, viewerID, profileID)
		if err != nil {
			return nil, "", err
		}
	}

	// Profiles have no paid grant tier; viewers see MINIMAL until a match
	// reveals contact details.
	tier := visibility.ResolveTier(isOwner, nil, contactRevealed, time.Now())
	return visibility.ProjectProfile(profile, tier), tier, nil
}

func (s *profileService) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*models.PharmacistProfile, error) {
	profile, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.ErrNotFound
	}
	return profile, nil
}

func (s *profileService) SearchProfiles(ctx context.Context, viewerID uuid.UUID, filter repositories.ProfileFilter, limit, offset int) ([]map[string]any, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	profiles, total, err := s.repo.Search(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("Failed to search profiles", zap.Error(err))
		return nil, 0, err
	}

	results := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		tier := visibility.TierMinimal
		if p.UserID == viewerID {
			tier = visibility.TierFull
		}
		results = append(results, visibility.ProjectProfile(p, tier))
	}

	return results, total, nil
}

func (s *profileService) hasRevealedMatch(ctx context.Context, viewerID, profileID uuid.UUID) (bool, error) {
	matches, err := s.matchRepo.ListByUser(ctx, viewerID)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.ProfileID == profileID && m.ContactRevealedAt != nil && m.Status != models.MatchStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func validateProfile(p *models.PharmacistProfile) error {
	if len(p.PreferredRegions) == 0 {
		return apperrors.Validationf("at least one preferred region is required")
	}
	if p.BudgetMin < 0 || p.BudgetMax < p.BudgetMin {
		return apperrors.Validationf("invalid budget range")
	}
	if p.PreferredAreaMin < 0 || p.PreferredAreaMax < p.PreferredAreaMin {
		return apperrors.Validationf("invalid preferred area range")
	}
	if p.PreferredRevenueMin < 0 || p.PreferredRevenueMax < p.PreferredRevenueMin {
		return apperrors.Validationf("invalid preferred revenue range")
	}
	if p.ExperienceYears < 0 {
		return apperrors.Validationf("experience_years must not be negative")
	}
	return nil
}
