package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/audit"
	"github.com/yakmate-inc/yakmate-engine/pkg/contact"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
)

// Escalation thresholds over the user's prior violation event count.
const (
	flagThreshold  = 3
	blockThreshold = 5
)

// ScreenResult is the outcome of screening one piece of user text.
type ScreenResult struct {
	Detection      contact.Result
	Action         string // empty when nothing was detected
	ViolationCount int    // cumulative count including this event
}

// ContactDetectionService screens user text for contact-channel patterns
// and applies the escalation policy. The detection log is the source of
// truth for escalation; the redis counter is a write-through hint only.
type ContactDetectionService interface {
	// ScreenText analyzes text on behalf of userID. When patterns are
	// found it appends audit rows, emits security events, and returns
	// the action the caller must enforce. BLOCKED means the text must
	// not be persisted.
	ScreenText(ctx context.Context, tenantID, userID uuid.UUID, matchID *uuid.UUID, text string) (*ScreenResult, error)
	// ViolationCount returns the user's cumulative violation count.
	ViolationCount(ctx context.Context, userID uuid.UUID) (int, error)
	// ViolationHistory returns the user's most recent detection rows.
	ViolationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ContactDetectionLog, error)
}

type contactDetectionService struct {
	repo     repositories.DetectionRepository
	redis    *redis.Client // nil when the hint cache is not configured
	auditor  *audit.SecurityAuditor
	notifier Notifier
	logger   *zap.Logger
}

// NewContactDetectionService creates a new ContactDetectionService.
// redisClient may be nil.
func NewContactDetectionService(
	repo repositories.DetectionRepository,
	redisClient *redis.Client,
	auditor *audit.SecurityAuditor,
	notifier Notifier,
	logger *zap.Logger,
) ContactDetectionService {
	return &contactDetectionService{
		repo:     repo,
		redis:    redisClient,
		auditor:  auditor,
		notifier: notifier,
		logger:   logger.Named("contact-detection-service"),
	}
}

var _ ContactDetectionService = (*contactDetectionService)(nil)

func (s *contactDetectionService) ScreenText(ctx context.Context, tenantID, userID uuid.UUID, matchID *uuid.UUID, text string) (*ScreenResult, error) {
	result := contact.Analyze(text)
	if !result.Detected {
		return &ScreenResult{Detection: result}, nil
	}

	prior, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load violation count: %w", err)
	}

	// One message is one violation event regardless of how many patterns
	// it carried. Escalation reads the prior event count, so the first
	// block fires on the event after the threshold is reached; the
	// stamped count already includes the current event.
	count := prior + 1
	action := actionForCount(prior)

	for _, p := range result.Patterns {
		logRow := &models.ContactDetectionLog{
			TenantID:       tenantID,
			UserID:         userID,
			MatchID:        matchID,
			PatternType:    string(p.Type),
			MaskedValue:    p.MaskedValue,
			ActionTaken:    action,
			ViolationCount: count,
		}
		if err := s.repo.Create(ctx, logRow); err != nil {
			return nil, fmt.Errorf("failed to record detection: %w", err)
		}

		s.auditor.LogContactViolation(tenantID, userID, audit.ContactViolationDetails{
			PatternType:    string(p.Type),
			MaskedValue:    p.MaskedValue,
			ActionTaken:    action,
			ViolationCount: count,
		})
	}

	if action == models.DetectionActionBlocked {
		s.auditor.LogMessageBlocked(tenantID, userID, count)
	}

	s.bumpHint(ctx, tenantID, userID)
	s.notifier.ContactWarning(ctx, userID.String(), action, count)

	return &ScreenResult{
		Detection:      result,
		Action:         action,
		ViolationCount: count,
	}, nil
}

func (s *contactDetectionService) ViolationCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountByUser(ctx, userID)
}

func (s *contactDetectionService) ViolationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ContactDetectionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// bumpHint increments the cached counter. Failures only log; the database
// count drives every enforcement decision.
func (s *contactDetectionService) bumpHint(ctx context.Context, tenantID, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf("contact_violations:%s:%s", tenantID, userID)
	if err := s.redis.Incr(ctx, key).Err(); err != nil {
		s.logger.Warn("failed to bump violation hint counter", zap.Error(err))
	}
}

// actionForCount maps the number of prior violation events to the action
// for the current one.
func actionForCount(prior int) string {
	switch {
	case prior >= blockThreshold:
		return models.DetectionActionBlocked
	case prior >= flagThreshold:
		return models.DetectionActionFlagged
	default:
		return models.DetectionActionWarning
	}
}
