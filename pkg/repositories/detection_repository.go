package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// DetectionRepository provides append-only data access for contact
// detection audit rows.
type DetectionRepository interface {
	Create(ctx context.Context, log *models.ContactDetectionLog) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ContactDetectionLog, error)
}

type detectionRepository struct{}

// NewDetectionRepository creates a new DetectionRepository.
func NewDetectionRepository() DetectionRepository {
	return &detectionRepository{}
}

var _ DetectionRepository = (*detectionRepository)(nil)

func (r *detectionRepository) Create(ctx context.Context, log *models.ContactDetectionLog) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO engine_contact_detection_logs (
			tenant_id, user_id, match_id, pattern_type, masked_value,
			action_taken, violation_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		log.TenantID,
		log.UserID,
		log.MatchID,
		log.PatternType,
		log.MaskedValue,
		log.ActionTaken,
		log.ViolationCount,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create detection log: %w", err)
	}

	return nil
}

func (r *detectionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	// One violation event writes one row per detected pattern, all carrying
	// the event's cumulative count. The max therefore equals the number of
	// events, not the number of rows.
	var count int
	query := `SELECT COALESCE(MAX(violation_count), 0) FROM engine_contact_detection_logs WHERE user_id = $1`
	if err := scope.Conn.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count detection logs: %w", err)
	}

	return count, nil
}

func (r *detectionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ContactDetectionLog, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, tenant_id, user_id, match_id, pattern_type, masked_value,
		       action_taken, violation_count, created_at
		FROM engine_contact_detection_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ContactDetectionLog
	for rows.Next() {
		var l models.ContactDetectionLog
		err := rows.Scan(
			&l.ID,
			&l.TenantID,
			&l.UserID,
			&l.MatchID,
			&l.PatternType,
			&l.MaskedValue,
			&l.ActionTaken,
			&l.ViolationCount,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection log: %w", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detection logs: %w", err)
	}

	return logs, nil
}
