package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// Notifier receives domain events the engine raises for user-facing
// notification delivery. The engine does not deliver notifications itself;
// implementations bridge to whatever channel the deployment uses.
type Notifier interface {
	MatchCreated(ctx context.Context, match *models.Match)
	MatchStatusChanged(ctx context.Context, match *models.Match)
	MessageReceived(ctx context.Context, match *models.Match, message *models.MatchMessage)
	ContactWarning(ctx context.Context, userID string, action string, violationCount int)
}

type loggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier returns a Notifier that only logs events. Used as the
// default wiring until a delivery channel is configured.
func NewLoggingNotifier(logger *zap.Logger) Notifier {
	return &loggingNotifier{logger: logger.Named("notifier")}
}

var _ Notifier = (*loggingNotifier)(nil)

func (n *loggingNotifier) MatchCreated(_ context.Context, match *models.Match) {
	n.logger.Info("match created",
		zap.String("match_id", match.ID.String()),
		zap.Float64("match_score", match.MatchScore))
}

func (n *loggingNotifier) MatchStatusChanged(_ context.Context, match *models.Match) {
	n.logger.Info("match status changed",
		zap.String("match_id", match.ID.String()),
		zap.String("status", match.Status))
}

func (n *loggingNotifier) MessageReceived(_ context.Context, match *models.Match, message *models.MatchMessage) {
	n.logger.Info("message received",
		zap.String("match_id", match.ID.String()),
		zap.String("message_id", message.ID.String()),
		zap.Bool("contains_contact_info", message.ContainsContactInfo))
}

func (n *loggingNotifier) ContactWarning(_ context.Context, userID string, action string, violationCount int) {
	n.logger.Info("contact warning issued",
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.Int("violation_count", violationCount))
}
