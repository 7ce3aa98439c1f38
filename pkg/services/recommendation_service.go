package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
	"github.com/yakmate-inc/yakmate-engine/pkg/visibility"
)

// Reason thresholds: a dimension contributes a reason line only when its
// component clears these values.
const (
	reasonRegionMin     = 20.0
	reasonBudgetMin     = 20.0
	reasonRevenueMin    = 12.0
	reasonExperienceMin = 8.0
)

// Recommendation is one ranked candidate. Candidate is the anonymized
// MINIMAL-tier projection; Reasons are user-facing Korean explanations.
type Recommendation struct {
	Candidate      map[string]any        `json:"candidate"`
	AnonymousID    string                `json:"anonymous_id"`
	Score          float64               `json:"score"`
	ScoreBreakdown models.ScoreBreakdown `json:"score_breakdown"`
	Reasons        []string              `json:"reasons"`
}

// RecommendationService ranks counterparties by compatibility score.
type RecommendationService interface {
	// RecommendListings ranks active listings for the caller's profile.
	RecommendListings(ctx context.Context, userID uuid.UUID) ([]Recommendation, error)
	// RecommendProfiles ranks active profiles for one of the caller's
	// listings.
	RecommendProfiles(ctx context.Context, userID, listingID uuid.UUID) ([]Recommendation, error)
}

type recommendationService struct {
	listingRepo repositories.ListingRepository
	profileRepo repositories.ProfileRepository
	scoreFloor  float64
	limit       int
	logger      *zap.Logger
}

// NewRecommendationService creates a new RecommendationService. Candidates
// scoring below scoreFloor are omitted; at most limit results are returned.
func NewRecommendationService(
	listingRepo repositories.ListingRepository,
	profileRepo repositories.ProfileRepository,
	scoreFloor float64,
	limit int,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		listingRepo: listingRepo,
		profileRepo: profileRepo,
		scoreFloor:  scoreFloor,
		limit:       limit,
		logger:      logger.Named("recommendation-service"),
	}
}

var _ RecommendationService = (*recommendationService)(nil)

func (s *recommendationService) RecommendListings(ctx context.Context, userID uuid.UUID) ([]Recommendation, error) {
	profile, err := s.profileRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.Validationf("an active profile is required for recommendations")
	}

	listings, err := s.listingRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for _, listing := range listings {
		if listing.OwnerID == userID {
			continue
		}
		score, breakdown := CalculateMatchScore(listing, profile)
		if score < s.scoreFloor {
			continue
		}
		recs = append(recs, Recommendation{
			Candidate:      visibility.ProjectListing(listing, visibility.TierMinimal),
			AnonymousID:    listing.AnonymousID,
			Score:          score,
			ScoreBreakdown: breakdown,
			Reasons:        buildReasons(breakdown),
		})
	}

	return s.rank(recs), nil
}

func (s *recommendationService) RecommendProfiles(ctx context.Context, userID, listingID uuid.UUID) ([]Recommendation, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, apperrors.ErrNotFound
	}
	if listing.OwnerID != userID {
		return nil, apperrors.Validationf("only the owner can request recommendations for a listing")
	}

	profiles, err := s.profileRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for _, profile := range profiles {
		if profile.UserID == userID {
			continue
		}
		score, breakdown := CalculateMatchScore(listing, profile)
		if score < s.scoreFloor {
			continue
		}
		recs = append(recs, Recommendation{
			Candidate:      visibility.ProjectProfile(profile, visibility.TierMinimal),
			AnonymousID:    profile.AnonymousID,
			Score:          score,
			ScoreBreakdown: breakdown,
			Reasons:        buildReasons(breakdown),
		})
	}

	return s.rank(recs), nil
}

// rank sorts by score descending with anonymous ID as a deterministic
// tie-break, then truncates to the configured limit.
func (s *recommendationService) rank(recs []Recommendation) []Recommendation {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].AnonymousID < recs[j].AnonymousID
	})
	if s.limit > 0 && len(recs) > s.limit {
		recs = recs[:s.limit]
	}
	return recs
}

func buildReasons(b models.ScoreBreakdown) []string {
	var reasons []string
	if b.Region >= reasonRegionMin {
		reasons = append(reasons, "선호 지역과 일치합니다")
	}
	if b.Budget >= reasonBudgetMin {
		reasons = append(reasons, "예산 범위에 맞습니다")
	}
	if b.Revenue >= reasonRevenueMin {
		reasons = append(reasons, "기대 매출 수준을 충족합니다")
	}
	if b.Experience >= reasonExperienceMin {
		reasons = append(reasons, "운영 경험이 충분합니다")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "전반적인 조건이 잘 맞습니다")
	}
	return reasons
}
