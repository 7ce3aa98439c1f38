package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// GrantRepository is a read model over access grants written by the
// payment flow.
type GrantRepository interface {
	// GetForListing returns the newest unexpired grant the user holds on
	// the listing, or nil when none exists.
	GetForListing(ctx context.Context, listingID, userID uuid.UUID) (*models.AccessGrant, error)
}

type grantRepository struct{}

// NewGrantRepository creates a new GrantRepository.
func NewGrantRepository() GrantRepository {
	return &grantRepository{}
}

var _ GrantRepository = (*grantRepository)(nil)

func (r *grantRepository) GetForListing(ctx context.Context, listingID, userID uuid.UUID) (*models.AccessGrant, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, tenant_id, listing_id, user_id, level, payment_id, expires_at, created_at
		FROM engine_access_grants
		WHERE listing_id = $1 AND user_id = $2
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC
		LIMIT 1`

	var g models.AccessGrant
	err := scope.Conn.QueryRow(ctx, query, listingID, userID).Scan(
		&g.ID,
		&g.TenantID,
		&g.ListingID,
		&g.UserID,
		&g.Level,
		&g.PaymentID,
		&g.ExpiresAt,
		&g.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No grant held
		}
		return nil, fmt.Errorf("failed to query access grant: %w", err)
	}

	return &g, nil
}
