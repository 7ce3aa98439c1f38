package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yakmate-inc/yakmate-engine/pkg/apperrors"
	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// InterestRepository provides data access for expressions of interest.
type InterestRepository interface {
	Create(ctx context.Context, interest *models.Interest) error
	Delete(ctx context.Context, interestID uuid.UUID) error
	GetByID(ctx context.Context, interestID uuid.UUID) (*models.Interest, error)
	GetByTriple(ctx context.Context, listingID, profileID uuid.UUID, direction string) (*models.Interest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Interest, error)
	ListReceivedByListing(ctx context.Context, listingID uuid.UUID) ([]*models.Interest, error)
	ListReceivedByProfile(ctx context.Context, profileID uuid.UUID) ([]*models.Interest, error)
}

type interestRepository struct{}

// NewInterestRepository creates a new InterestRepository.
func NewInterestRepository() InterestRepository {
	return &interestRepository{}
}

var _ InterestRepository = (*interestRepository)(nil)

const interestColumns = `id, tenant_id, listing_id, profile_id, user_id, direction, message, created_at`

func (r *interestRepository) Create(ctx context.Context, interest *models.Interest) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO engine_interests (tenant_id, listing_id, profile_id, user_id, direction, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		interest.TenantID,
		interest.ListingID,
		interest.ProfileID,
		interest.UserID,
		interest.Direction,
		interest.Message,
	).Scan(&interest.ID, &interest.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Duplicate (listing, profile, direction) triple.
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create interest: %w", err)
	}

	return nil
}

func (r *interestRepository) Delete(ctx context.Context, interestID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM engine_interests WHERE id = $1`, interestID)
	if err != nil {
		return fmt.Errorf("failed to delete interest: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *interestRepository) GetByID(ctx context.Context, interestID uuid.UUID) (*models.Interest, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + interestColumns + ` FROM engine_interests WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, interestID)
	interest, err := scanInterest(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Interest not found
		}
		return nil, err
	}

	return interest, nil
}

func (r *interestRepository) GetByTriple(ctx context.Context, listingID, profileID uuid.UUID, direction string) (*models.Interest, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + interestColumns + ` FROM engine_interests
		WHERE listing_id = $1 AND profile_id = $2 AND direction = $3`

	row := scope.Conn.QueryRow(ctx, query, listingID, profileID, direction)
	interest, err := scanInterest(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return interest, nil
}

func (r *interestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Interest, error) {
	return r.list(ctx, `user_id = $1`, userID)
}

func (r *interestRepository) ListReceivedByListing(ctx context.Context, listingID uuid.UUID) ([]*models.Interest, error) {
	return r.list(ctx, `listing_id = $1 AND direction = 'PHARMACIST_TO_LISTING'`, listingID)
}

func (r *interestRepository) ListReceivedByProfile(ctx context.Context, profileID uuid.UUID) ([]*models.Interest, error) {
	return r.list(ctx, `profile_id = $1 AND direction = 'LISTING_TO_PHARMACIST'`, profileID)
}

func (r *interestRepository) list(ctx context.Context, where string, args ...any) ([]*models.Interest, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + interestColumns + ` FROM engine_interests WHERE ` + where + ` ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}
	defer rows.Close()

	var interests []*models.Interest
	for rows.Next() {
		interest, err := scanInterest(rows)
		if err != nil {
			return nil, err
		}
		interests = append(interests, interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interests: %w", err)
	}

	return interests, nil
}

func scanInterest(row pgx.Row) (*models.Interest, error) {
	var i models.Interest
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.ListingID,
		&i.ProfileID,
		&i.UserID,
		&i.Direction,
		&i.Message,
		&i.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan interest: %w", err)
	}
	return &i, nil
}
