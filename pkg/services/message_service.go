package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
)

// MessagePage is one page of a match conversation, newest first.
// UnreadCount is captured before the page fetch marks messages read.
type MessagePage struct {
	Messages    []*models.MatchMessage
	Total       int
	UnreadCount int
}

// MessageService provides match-scoped chat. Every outbound message passes
// through contact screening; a BLOCKED result is never persisted.
type MessageService interface {
	SendMessage(ctx context.Context, userID, matchID uuid.UUID, content string) (*models.MatchMessage, error)
	GetMessages(ctx context.Context, userID, matchID uuid.UUID, limit, offset int) (*MessagePage, error)
}

type messageService struct {
	messageRepo repositories.MessageRepository
	matchRepo   repositories.MatchRepository
	listingRepo repositories.ListingRepository
	profileRepo repositories.ProfileRepository
	detection   ContactDetectionService
	notifier    Notifier
	logger      *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(
	messageRepo repositories.MessageRepository,
	matchRepo repositories.MatchRepository,
	listingRepo repositories.ListingRepository,
	profileRepo repositories.ProfileRepository,
	detection ContactDetectionService,
	notifier Notifier,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		listingRepo: listingRepo,
		profileRepo: profileRepo,
		detection:   detection,
		notifier:    notifier,
		logger:      logger.Named("message-service"),
	}
}

var _ MessageService = (*messageService)(nil)

func (s *messageService) SendMessage(ctx context.Context, userID, matchID uuid.UUID, content string) (*models.MatchMessage, error) {
	if content == "" {
		return nil, apperrors.Validationf("message content is required")
	}

	match, err := s.loadMatchFor(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	if !match.CanMessage() {
		return nil, apperrors.Validationf("match is %s and does not accept messages", match.Status)
	}

	screen, err := s.detection.ScreenText(ctx, match.TenantID, userID, &matchID, content)
	if err != nil {
		return nil, err
	}
	if screen.Action == models.DetectionActionBlocked {
		return nil, apperrors.ErrBlocked
	}

	message := &models.MatchMessage{
		TenantID: match.TenantID,
		MatchID:  matchID,
		SenderID: userID,
		Content:  screen.Detection.FilteredContent,
	}
	if screen.Detection.Detected {
		// The pre-mask original is kept for the audit trail only.
		message.FilteredContent = content
		message.ContainsContactInfo = true
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.logger.Error("Failed to create message",
			zap.String("match_id", matchID.String()),
			zap.Error(err))
		return nil, err
	}

	if match.FirstMessageAt == nil {
		if err := s.matchRepo.MarkFirstMessage(ctx, matchID, message.CreatedAt); err != nil {
			return nil, err
		}
	}

	s.notifier.MessageReceived(ctx, match, message)
	return message, nil
}

func (s *messageService) GetMessages(ctx context.Context, userID, matchID uuid.UUID, limit, offset int) (*MessagePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	match, err := s.loadMatchFor(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}

	// Captured before the implicit mark-read below.
	unread, err := s.messageRepo.CountUnread(ctx, match.ID, userID)
	if err != nil {
		return nil, err
	}

	messages, total, err := s.messageRepo.ListByMatch(ctx, match.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.MarkRead(ctx, match.ID, userID, time.Now()); err != nil {
		return nil, err
	}

	return &MessagePage{
		Messages:    messages,
		Total:       total,
		UnreadCount: unread,
	}, nil
}

// loadMatchFor fetches the match and verifies the caller sits on one of its
// sides. Third parties get ErrNotFound, not a permission error, so match
// existence is not leaked.
func (s *messageService) loadMatchFor(ctx context.Context, userID, matchID uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, apperrors.ErrNotFound
	}

	listing, err := s.listingRepo.GetByID(ctx, match.ListingID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByID(ctx, match.ProfileID)
	if err != nil {
		return nil, err
	}
	if listing == nil || profile == nil {
		return nil, apperrors.ErrNotFound
	}
	if !match.InvolvesUser(listing.OwnerID, profile.UserID, userID) {
		return nil, apperrors.ErrNotFound
	}

	return match, nil
}
