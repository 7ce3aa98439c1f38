package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/contact"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
)

// ExpressInterestResult reports the outcome of one express-interest call.
// Match is non-nil only when the call completed a mutual pair.
type ExpressInterestResult struct {
	Interest *models.Interest
	Match    *models.Match
}

// MatchService implements the mutual-interest matching flow and the match
// lifecycle state machine.
type MatchService interface {
	// ExpressInterest records a directed interest and, when the opposite
	// direction already exists, creates the match. The compatibility
	// score is frozen at creation and contact details are revealed to
	// both sides at the same instant.
	ExpressInterest(ctx context.Context, userID uuid.UUID, listingID, profileID uuid.UUID, direction, note string) (*ExpressInterestResult, error)
	// CancelInterest removes an interest that has not yet produced a
	// match. Once matched, interests are frozen.
	CancelInterest(ctx context.Context, userID, interestID uuid.UUID) error
	GetInterests(ctx context.Context, userID uuid.UUID) (sent []*models.Interest, received []*models.Interest, err error)
	GetMatches(ctx context.Context, userID uuid.UUID) ([]*models.Match, error)
	GetMatch(ctx context.Context, userID, matchID uuid.UUID) (*models.Match, error)
	// UpdateMatchStatus advances the lifecycle. CHATTING cannot be set
	// explicitly; it is entered only by the first chat message.
	// UpdateMatchStatus advances the match state machine. meetingAt is
	// honored only for the MEETING transition and defaults to now.
	UpdateMatchStatus(ctx context.Context, userID, matchID uuid.UUID, newStatus, reason string, meetingAt *time.Time) (*models.Match, error)
}

type matchService struct {
	matchRepo    repositories.MatchRepository
	interestRepo repositories.InterestRepository
	listingRepo  repositories.ListingRepository
	profileRepo  repositories.ProfileRepository
	notifier     Notifier
	logger       *zap.Logger
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	matchRepo repositories.MatchRepository,
	interestRepo repositories.InterestRepository,
	listingRepo repositories.ListingRepository,
	profileRepo repositories.ProfileRepository,
	notifier Notifier,
	logger *zap.Logger,
) MatchService {
	return &matchService{
		matchRepo:    matchRepo,
		interestRepo: interestRepo,
		listingRepo:  listingRepo,
		profileRepo:  profileRepo,
		notifier:     notifier,
		logger:       logger.Named("match-service"),
	}
}

var _ MatchService = (*matchService)(nil)

func (s *matchService) ExpressInterest(ctx context.Context, userID uuid.UUID, listingID, profileID uuid.UUID, direction, note string) (*ExpressInterestResult, error) {
	if !models.IsValidInterestDirection(direction) {
		return nil, apperrors.Validationf("invalid interest direction: %s", direction)
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, apperrors.ErrNotFound
	}
	if listing.Status == models.ListingStatusExpired || time.Now().After(listing.ExpiresAt) {
		return nil, apperrors.ErrListingExpired
	}
	if listing.Status != models.ListingStatusActive {
		return nil, apperrors.Validationf("listing is %s and cannot receive interest", listing.Status)
	}

	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.ErrNotFound
	}
	if !profile.IsActive {
		return nil, apperrors.Validationf("profile is inactive and cannot receive interest")
	}

	// Self-interest across one's own listing and profile can never form a
	// legitimate transfer.
	if listing.OwnerID == profile.UserID {
		return nil, apperrors.Validationf("listing and profile belong to the same user")
	}

	switch direction {
	case models.InterestPharmacistToListing:
		if profile.UserID != userID {
			return nil, apperrors.Validationf("only the profile owner can express this interest")
		}
	case models.InterestListingToPharmacist:
		if listing.OwnerID != userID {
			return nil, apperrors.Validationf("only the listing owner can express this interest")
		}
	}

	interest := &models.Interest{
		TenantID:  listing.TenantID,
		ListingID: listingID,
		ProfileID: profileID,
		UserID:    userID,
		Direction: direction,
		Message:   contact.MaskText(note),
	}
	if err := s.interestRepo.Create(ctx, interest); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Validationf("interest already expressed")
		}
		return nil, err
	}

	reciprocal, err := s.interestRepo.GetByTriple(ctx, listingID, profileID, models.OppositeDirection(direction))
	if err != nil {
		return nil, err
	}
	if reciprocal == nil {
		return &ExpressInterestResult{Interest: interest}, nil
	}

	match, err := s.createMutualMatch(ctx, listing, profile, interest, reciprocal, direction)
	if err != nil {
		return nil, err
	}

	return &ExpressInterestResult{Interest: interest, Match: match}, nil
}

// createMutualMatch builds the match for a completed pair. The unique
// (listing, profile) index arbitrates concurrent completions; the loser
// fetches and returns the winning row.
func (s *matchService) createMutualMatch(ctx context.Context, listing *models.AnonymousListing, profile *models.PharmacistProfile, interest, reciprocal *models.Interest, direction string) (*models.Match, error) {
	buyerInterest, sellerInterest := interest, reciprocal
	if direction == models.InterestListingToPharmacist {
		buyerInterest, sellerInterest = reciprocal, interest
	}

	now := time.Now()
	score, breakdown := CalculateMatchScore(listing, profile)
	match := &models.Match{
		TenantID:          listing.TenantID,
		ListingID:         listing.ID,
		ProfileID:         profile.ID,
		BuyerInterestID:   buyerInterest.ID,
		SellerInterestID:  sellerInterest.ID,
		MatchScore:        score,
		ScoreBreakdown:    breakdown,
		Status:            models.MatchStatusMutual,
		ContactRevealedAt: &now,
	}

	err := s.matchRepo.Create(ctx, match)
	if errors.Is(err, apperrors.ErrConflict) {
		winner, getErr := s.matchRepo.GetByPair(ctx, listing.ID, profile.ID)
		if getErr != nil {
			return nil, getErr
		}
		if winner == nil {
			return nil, fmt.Errorf("match conflict without a winning row for listing %s", listing.ID)
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mutual match created",
		zap.String("match_id", match.ID.String()),
		zap.String("listing_id", listing.ID.String()),
		zap.String("profile_id", profile.ID.String()),
		zap.Float64("match_score", match.MatchScore))
	s.notifier.MatchCreated(ctx, match)

	return match, nil
}

func (s *matchService) CancelInterest(ctx context.Context, userID, interestID uuid.UUID) error {
	interest, err := s.interestRepo.GetByID(ctx, interestID)
	if err != nil {
		return err
	}
	if interest == nil {
		return apperrors.ErrNotFound
	}
	if interest.UserID != userID {
		return apperrors.Validationf("only the author can cancel an interest")
	}

	match, err := s.matchRepo.GetByPair(ctx, interest.ListingID, interest.ProfileID)
	if err != nil {
		return err
	}
	if match != nil {
		return apperrors.Validationf("interest is part of a match and cannot be cancelled")
	}

	return s.interestRepo.Delete(ctx, interestID)
}

func (s *matchService) GetInterests(ctx context.Context, userID uuid.UUID) ([]*models.Interest, []*models.Interest, error) {
	sent, err := s.interestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var received []*models.Interest

	if listing, err := s.listingRepo.GetFirstActiveByOwner(ctx, userID); err != nil {
		return nil, nil, err
	} else if listing != nil {
		in, err := s.interestRepo.ListReceivedByListing(ctx, listing.ID)
		if err != nil {
			return nil, nil, err
		}
		received = append(received, in...)
	}

	if profile, err := s.profileRepo.GetActiveByUser(ctx, userID); err != nil {
		return nil, nil, err
	} else if profile != nil {
		in, err := s.interestRepo.ListReceivedByProfile(ctx, profile.ID)
		if err != nil {
			return nil, nil, err
		}
		received = append(received, in...)
	}

	return sent, received, nil
}

func (s *matchService) GetMatches(ctx context.Context, userID uuid.UUID) ([]*models.Match, error) {
	return s.matchRepo.ListByUser(ctx, userID)
}

func (s *matchService) GetMatch(ctx context.Context, userID, matchID uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, apperrors.ErrNotFound
	}

	involved, err := s.userInvolved(ctx, match, userID)
	if err != nil {
		return nil, err
	}
	if !involved {
		// Matches are invisible to third parties.
		return nil, apperrors.ErrNotFound
	}

	return match, nil
}

func (s *matchService) UpdateMatchStatus(ctx context.Context, userID, matchID uuid.UUID, newStatus, reason string, meetingAt *time.Time) (*models.Match, error) {
	match, err := s.GetMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}

	if match.IsTerminal() {
		return nil, apperrors.Validationf("match is %s and can no longer change state", match.Status)
	}

	now := time.Now()
	switch newStatus {
	case models.MatchStatusChatting:
		return nil, apperrors.Validationf("CHATTING is entered by sending the first message, not by a status update")
	case models.MatchStatusMeeting:
		if match.Status != models.MatchStatusChatting {
			return nil, apperrors.Validationf("cannot move from %s to MEETING", match.Status)
		}
		match.Status = models.MatchStatusMeeting
		// Callers may schedule the meeting ahead of time.
		if meetingAt != nil && !meetingAt.IsZero() {
			match.MeetingAt = meetingAt
		} else {
			match.MeetingAt = &now
		}
	case models.MatchStatusContracted:
		if match.Status != models.MatchStatusMeeting {
			return nil, apperrors.Validationf("cannot move from %s to CONTRACTED", match.Status)
		}
		match.Status = models.MatchStatusContracted
		match.ContractedAt = &now
	case models.MatchStatusCancelled:
		if reason == "" {
			return nil, apperrors.Validationf("a cancel reason is required")
		}
		match.Status = models.MatchStatusCancelled
		match.CancelReason = reason
		match.CancelledAt = &now
	default:
		return nil, apperrors.Validationf("invalid match status: %s", newStatus)
	}

	if err := s.matchRepo.UpdateStatus(ctx, match); err != nil {
		return nil, err
	}

	if match.Status == models.MatchStatusContracted {
		if err := s.handleContracted(ctx, models.MatchContracted{
			MatchID:      match.ID,
			ListingID:    match.ListingID,
			ContractedAt: now,
		}); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Match status updated",
		zap.String("match_id", match.ID.String()),
		zap.String("status", match.Status))
	s.notifier.MatchStatusChanged(ctx, match)

	return match, nil
}

// handleContracted applies the contract cascade: the listing leaves the
// matching pool.
func (s *matchService) handleContracted(ctx context.Context, event models.MatchContracted) error {
	if err := s.listingRepo.UpdateStatus(ctx, event.ListingID, models.ListingStatusMatched); err != nil {
		return fmt.Errorf("failed to mark listing matched: %w", err)
	}
	s.logger.Info("Listing marked as matched",
		zap.String("listing_id", event.ListingID.String()),
		zap.String("match_id", event.MatchID.String()))
	return nil
}

func (s *matchService) userInvolved(ctx context.Context, match *models.Match, userID uuid.UUID) (bool, error) {
	listing, err := s.listingRepo.GetByID(ctx, match.ListingID)
	if err != nil {
		return false, err
	}
	profile, err := s.profileRepo.GetByID(ctx, match.ProfileID)
	if err != nil {
		return false, err
	}
	if listing == nil || profile == nil {
		return false, nil
	}
	return match.InvolvesUser(listing.OwnerID, profile.UserID, userID), nil
}
