package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// MessageRepository provides data access for match chat messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.MatchMessage) error
	ListByMatch(ctx context.Context, matchID uuid.UUID, limit, offset int) ([]*models.MatchMessage, int, error)
	CountUnread(ctx context.Context, matchID, viewerID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, matchID, viewerID uuid.UUID, at time.Time) error
}

type messageRepository struct{}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository() MessageRepository {
	return &messageRepository{}
}

var _ MessageRepository = (*messageRepository)(nil)

const messageColumns = `
	id, tenant_id, match_id, sender_id, content, filtered_content,
	contains_contact_info, is_read, read_at, created_at`

func (r *messageRepository) Create(ctx context.Context, message *models.MatchMessage) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO engine_match_messages (
			tenant_id, match_id, sender_id, content, filtered_content,
			contains_contact_info, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, false, now())
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		message.TenantID,
		message.MatchID,
		message.SenderID,
		message.Content,
		message.FilteredContent,
		message.ContainsContactInfo,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *messageRepository) ListByMatch(ctx context.Context, matchID uuid.UUID, limit, offset int) ([]*models.MatchMessage, int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, 0, fmt.Errorf("no tenant scope in context")
	}

	var total int
	countQuery := `SELECT count(*) FROM engine_match_messages WHERE match_id = $1`
	if err := scope.Conn.QueryRow(ctx, countQuery, matchID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + ` FROM engine_match_messages
		WHERE match_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := scope.Conn.Query(ctx, query, matchID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.MatchMessage
	for rows.Next() {
		var m models.MatchMessage
		err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.MatchID,
			&m.SenderID,
			&m.Content,
			&m.FilteredContent,
			&m.ContainsContactInfo,
			&m.IsRead,
			&m.ReadAt,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, total, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, matchID, viewerID uuid.UUID) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT count(*) FROM engine_match_messages
		WHERE match_id = $1 AND sender_id <> $2 AND is_read = false`

	var count int
	if err := scope.Conn.QueryRow(ctx, query, matchID, viewerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return count, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, matchID, viewerID uuid.UUID, at time.Time) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	// Marks messages sent by the other party as read.
	query := `
		UPDATE engine_match_messages
		SET is_read = true, read_at = $3
		WHERE match_id = $1 AND sender_id <> $2 AND is_read = false`

	if _, err := scope.Conn.Exec(ctx, query, matchID, viewerID, at); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}

	return nil
}
