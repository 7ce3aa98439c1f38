package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
)

// ListingFilter holds the optional search predicates for listings.
// Range predicates are overlap tests against the listing's published
// ranges, not exact matches.
type ListingFilter struct {
	RegionCode   string   // exact region code
	RegionPrefix string   // top-level administrative code (first two digits)
	PharmacyType string
	MaxTotalCost *int64   // premium_max + deposit at or below
	AreaMin      *float64 // listing area range overlaps [AreaMin, AreaMax]
	AreaMax      *float64
	RevenueFloor *int64 // listing revenue range reaches this floor
}

// ListingRepository provides data access for anonymous listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.AnonymousListing) error
	Update(ctx context.Context, listing *models.AnonymousListing) error
	UpdateStatus(ctx context.Context, listingID uuid.UUID, status string) error
	Delete(ctx context.Context, listingID uuid.UUID) error
	GetByID(ctx context.Context, listingID uuid.UUID) (*models.AnonymousListing, error)
	Search(ctx context.Context, filter ListingFilter, limit, offset int) ([]*models.AnonymousListing, int, error)
	ListActive(ctx context.Context) ([]*models.AnonymousListing, error)
	GetFirstActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.AnonymousListing, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type listingRepository struct{}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository() ListingRepository {
	return &listingRepository{}
}

var _ ListingRepository = (*listingRepository)(nil)

const listingColumns = `
	id, tenant_id, owner_id, anonymous_id, region_code, region_name,
	pharmacy_type, premium_min, premium_max, deposit, monthly_rent_fee,
	revenue_min, revenue_max, area_min, area_max, staff_count,
	nearby_hospital, description, exact_address, pharmacy_name,
	owner_phone, latitude, longitude, status, expires_at, created_at, updated_at`

func (r *listingRepository) Create(ctx context.Context, listing *models.AnonymousListing) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO engine_listings (
			tenant_id, owner_id, anonymous_id, region_code, region_name,
			pharmacy_type, premium_min, premium_max, deposit, monthly_rent_fee,
			revenue_min, revenue_max, area_min, area_max, staff_count,
			nearby_hospital, description, exact_address, pharmacy_name,
			owner_phone, latitude, longitude, status, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		          $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		listing.TenantID,
		listing.OwnerID,
		listing.AnonymousID,
		listing.RegionCode,
		listing.RegionName,
		listing.PharmacyType,
		listing.PremiumMin,
		listing.PremiumMax,
		listing.Deposit,
		listing.MonthlyRentFee,
		listing.RevenueMin,
		listing.RevenueMax,
		listing.AreaMin,
		listing.AreaMax,
		listing.StaffCount,
		listing.NearbyHospital,
		listing.Description,
		listing.ExactAddress,
		listing.PharmacyName,
		listing.OwnerPhone,
		listing.Latitude,
		listing.Longitude,
		listing.Status,
		listing.ExpiresAt,
		now,
		now,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.AnonymousListing) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_listings
		SET region_code = $2, region_name = $3, pharmacy_type = $4,
		    premium_min = $5, premium_max = $6, deposit = $7,
		    monthly_rent_fee = $8, revenue_min = $9, revenue_max = $10,
		    area_min = $11, area_max = $12, staff_count = $13,
		    nearby_hospital = $14, description = $15, exact_address = $16,
		    pharmacy_name = $17, owner_phone = $18, latitude = $19,
		    longitude = $20, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		listing.ID,
		listing.RegionCode,
		listing.RegionName,
		listing.PharmacyType,
		listing.PremiumMin,
		listing.PremiumMax,
		listing.Deposit,
		listing.MonthlyRentFee,
		listing.RevenueMin,
		listing.RevenueMax,
		listing.AreaMin,
		listing.AreaMax,
		listing.StaffCount,
		listing.NearbyHospital,
		listing.Description,
		listing.ExactAddress,
		listing.PharmacyName,
		listing.OwnerPhone,
		listing.Latitude,
		listing.Longitude,
	).Scan(&listing.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("listing %s: not found", listing.ID)
		}
		return fmt.Errorf("failed to update listing: %w", err)
	}

	return nil
}

func (r *listingRepository) UpdateStatus(ctx context.Context, listingID uuid.UUID, status string) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `UPDATE engine_listings SET status = $2, updated_at = now() WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, listingID, status)
	if err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: not found", listingID)
	}

	return nil
}

func (r *listingRepository) Delete(ctx context.Context, listingID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `DELETE FROM engine_listings WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, listingID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: not found", listingID)
	}

	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*models.AnonymousListing, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + listingColumns + ` FROM engine_listings WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, listingID)
	listing, err := scanListing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Listing not found
		}
		return nil, err
	}

	return listing, nil
}

func (r *listingRepository) Search(ctx context.Context, filter ListingFilter, limit, offset int) ([]*models.AnonymousListing, int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, 0, fmt.Errorf("no tenant scope in context")
	}

	where := `WHERE status = 'ACTIVE'`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.RegionCode != "" {
		where += ` AND region_code = ` + arg(filter.RegionCode)
	} else if filter.RegionPrefix != "" {
		where += ` AND region_code LIKE ` + arg(filter.RegionPrefix+"%")
	}
	if filter.PharmacyType != "" {
		where += ` AND pharmacy_type = ` + arg(filter.PharmacyType)
	}
	if filter.MaxTotalCost != nil {
		where += ` AND premium_max + deposit <= ` + arg(*filter.MaxTotalCost)
	}
	// Area is a range-overlap test: the listing's published range must
	// intersect the requested range.
	if filter.AreaMin != nil {
		where += ` AND area_max >= ` + arg(*filter.AreaMin)
	}
	if filter.AreaMax != nil {
		where += ` AND area_min <= ` + arg(*filter.AreaMax)
	}
	if filter.RevenueFloor != nil {
		where += ` AND revenue_max >= ` + arg(*filter.RevenueFloor)
	}

	countQuery := `SELECT count(*) FROM engine_listings ` + where
	var total int
	if err := scope.Conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	query := `SELECT ` + listingColumns + ` FROM engine_listings ` + where +
		` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *listingRepository) ListActive(ctx context.Context) ([]*models.AnonymousListing, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + listingColumns + ` FROM engine_listings WHERE status = 'ACTIVE' ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *listingRepository) GetFirstActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.AnonymousListing, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + listingColumns + ` FROM engine_listings
		WHERE owner_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at ASC
		LIMIT 1`

	row := scope.Conn.QueryRow(ctx, query, ownerID)
	listing, err := scanListing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return listing, nil
}

func (r *listingRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_listings
		SET status = 'EXPIRED', updated_at = now()
		WHERE status = 'ACTIVE' AND expires_at <= $1`

	result, err := scope.Conn.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanListing(row pgx.Row) (*models.AnonymousListing, error) {
	var l models.AnonymousListing
	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.OwnerID,
		&l.AnonymousID,
		&l.RegionCode,
		&l.RegionName,
		&l.PharmacyType,
		&l.PremiumMin,
		&l.PremiumMax,
		&l.Deposit,
		&l.MonthlyRentFee,
		&l.RevenueMin,
		&l.RevenueMax,
		&l.AreaMin,
		&l.AreaMax,
		&l.StaffCount,
		&l.NearbyHospital,
		&l.Description,
		&l.ExactAddress,
		&l.PharmacyName,
		&l.OwnerPhone,
		&l.Latitude,
		&l.Longitude,
		&l.Status,
		&l.ExpiresAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}
	return &l, nil
}

func collectListings(rows pgx.Rows) ([]*models.AnonymousListing, error) {
	var listings []*models.AnonymousListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}
	return listings, nil
}
