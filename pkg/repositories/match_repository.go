package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// MatchRepository provides data access for matches.
type MatchRepository interface {
	// Create inserts a new MUTUAL match. When a concurrent call already
	// created the match for the same (listing, profile) pair it returns
	// apperrors.ErrConflict; callers then fetch the winning row.
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	GetByPair(ctx context.Context, listingID, profileID uuid.UUID) (*models.Match, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Match, error)
	UpdateStatus(ctx context.Context, match *models.Match) error
	MarkFirstMessage(ctx context.Context, matchID uuid.UUID, at time.Time) error
}

type matchRepository struct{}

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository() MatchRepository {
	return &matchRepository{}
}

var _ MatchRepository = (*matchRepository)(nil)

const matchColumns = `
	id, tenant_id, listing_id, profile_id, buyer_interest_id, seller_interest_id,
	match_score, score_breakdown, status, cancel_reason, contact_revealed_at,
	first_message_at, meeting_at, contracted_at, cancelled_at, created_at, updated_at`

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	breakdown, err := json.Marshal(match.ScoreBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}

	query := `
		INSERT INTO engine_matches (
			tenant_id, listing_id, profile_id, buyer_interest_id, seller_interest_id,
			match_score, score_breakdown, status, contact_revealed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, created_at, updated_at`

	err = scope.Conn.QueryRow(ctx, query,
		match.TenantID,
		match.ListingID,
		match.ProfileID,
		match.BuyerInterestID,
		match.SellerInterestID,
		match.MatchScore,
		breakdown,
		match.Status,
		match.ContactRevealedAt,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Another request won the (listing, profile) race.
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create match: %w", err)
	}

	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + matchColumns + ` FROM engine_matches WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, matchID)
	match, err := scanMatch(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Match not found
		}
		return nil, err
	}

	return match, nil
}

func (r *matchRepository) GetByPair(ctx context.Context, listingID, profileID uuid.UUID) (*models.Match, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + matchColumns + ` FROM engine_matches WHERE listing_id = $1 AND profile_id = $2`

	row := scope.Conn.QueryRow(ctx, query, listingID, profileID)
	match, err := scanMatch(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return match, nil
}

func (r *matchRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Match, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	// A user sits on a match either as the listing owner or as the
	// profile owner.
	query := `SELECT ` + qualifyMatchColumns("m") + `
		FROM engine_matches m
		JOIN engine_listings l ON l.id = m.listing_id
		JOIN engine_pharmacist_profiles p ON p.id = m.profile_id
		WHERE l.owner_id = $1 OR p.user_id = $1
		ORDER BY m.created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

func (r *matchRepository) UpdateStatus(ctx context.Context, match *models.Match) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_matches
		SET status = $2, cancel_reason = $3, meeting_at = $4,
		    contracted_at = $5, cancelled_at = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		match.ID,
		match.Status,
		match.CancelReason,
		match.MeetingAt,
		match.ContractedAt,
		match.CancelledAt,
	).Scan(&match.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update match status: %w", err)
	}

	return nil
}

func (r *matchRepository) MarkFirstMessage(ctx context.Context, matchID uuid.UUID, at time.Time) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	// Only the first message flips MUTUAL to CHATTING.
	query := `
		UPDATE engine_matches
		SET status = 'CHATTING', first_message_at = $2, updated_at = now()
		WHERE id = $1 AND first_message_at IS NULL`

	if _, err := scope.Conn.Exec(ctx, query, matchID, at); err != nil {
		return fmt.Errorf("failed to mark first message: %w", err)
	}

	return nil
}

func qualifyMatchColumns(alias string) string {
	return alias + `.id, ` + alias + `.tenant_id, ` + alias + `.listing_id, ` + alias + `.profile_id, ` +
		alias + `.buyer_interest_id, ` + alias + `.seller_interest_id, ` + alias + `.match_score, ` +
		alias + `.score_breakdown, ` + alias + `.status, ` + alias + `.cancel_reason, ` +
		alias + `.contact_revealed_at, ` + alias + `.first_message_at, ` + alias + `.meeting_at, ` +
		alias + `.contracted_at, ` + alias + `.cancelled_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	var breakdown []byte
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.ListingID,
		&m.ProfileID,
		&m.BuyerInterestID,
		&m.SellerInterestID,
		&m.MatchScore,
		&breakdown,
		&m.Status,
		&m.CancelReason,
		&m.ContactRevealedAt,
		&m.FirstMessageAt,
		&m.MeetingAt,
		&m.ContractedAt,
		&m.CancelledAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &m.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score breakdown: %w", err)
		}
	}
	return &m, nil
}
