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

// ProfileFilter holds the optional search predicates for pharmacist profiles.
type ProfileFilter struct {
	RegionCode    string // profiles whose preferred regions include this code
	PharmacyType  string // profiles whose preferred types include this type
	MinBudget     *int64 // profiles whose budget range reaches this floor
	MinExperience *int
}

// ProfileRepository provides data access for pharmacist profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.PharmacistProfile) error
	Update(ctx context.Context, profile *models.PharmacistProfile) error
	Deactivate(ctx context.Context, profileID uuid.UUID) error
	GetByID(ctx context.Context, profileID uuid.UUID) (*models.PharmacistProfile, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.PharmacistProfile, error)
	Search(ctx context.Context, filter ProfileFilter, limit, offset int) ([]*models.PharmacistProfile, int, error)
	ListActive(ctx context.Context) ([]*models.PharmacistProfile, error)
}

type profileRepository struct{}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository() ProfileRepository {
	return &profileRepository{}
}

var _ ProfileRepository = (*profileRepository)(nil)

const profileColumns = `
	id, tenant_id, user_id, anonymous_id, preferred_regions,
	budget_min, budget_max, preferred_area_min, preferred_area_max,
	preferred_revenue_min, preferred_revenue_max, preferred_pharmacy_types,
	experience_years, has_management_experience, specialty_tags,
	introduction, name, phone, email, license_number,
	is_active, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *models.PharmacistProfile) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO engine_pharmacist_profiles (
			tenant_id, user_id, anonymous_id, preferred_regions,
			budget_min, budget_max, preferred_area_min, preferred_area_max,
			preferred_revenue_min, preferred_revenue_max, preferred_pharmacy_types,
			experience_years, has_management_experience, specialty_tags,
			introduction, name, phone, email, license_number,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		          $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		profile.TenantID,
		profile.UserID,
		profile.AnonymousID,
		profile.PreferredRegions,
		profile.BudgetMin,
		profile.BudgetMax,
		profile.PreferredAreaMin,
		profile.PreferredAreaMax,
		profile.PreferredRevenueMin,
		profile.PreferredRevenueMax,
		profile.PreferredPharmacyTypes,
		profile.ExperienceYears,
		profile.HasManagementExperience,
		profile.SpecialtyTags,
		profile.Introduction,
		profile.Name,
		profile.Phone,
		profile.Email,
		profile.LicenseNumber,
		profile.IsActive,
		now,
		now,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.PharmacistProfile) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_pharmacist_profiles
		SET preferred_regions = $2, budget_min = $3, budget_max = $4,
		    preferred_area_min = $5, preferred_area_max = $6,
		    preferred_revenue_min = $7, preferred_revenue_max = $8,
		    preferred_pharmacy_types = $9, experience_years = $10,
		    has_management_experience = $11, specialty_tags = $12,
		    introduction = $13, name = $14, phone = $15, email = $16,
		    license_number = $17, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		profile.ID,
		profile.PreferredRegions,
		profile.BudgetMin,
		profile.BudgetMax,
		profile.PreferredAreaMin,
		profile.PreferredAreaMax,
		profile.PreferredRevenueMin,
		profile.PreferredRevenueMax,
		profile.PreferredPharmacyTypes,
		profile.ExperienceYears,
		profile.HasManagementExperience,
		profile.SpecialtyTags,
		profile.Introduction,
		profile.Name,
		profile.Phone,
		profile.Email,
		profile.LicenseNumber,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("profile %s: not found", profile.ID)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

func (r *profileRepository) Deactivate(ctx context.Context, profileID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `UPDATE engine_pharmacist_profiles SET is_active = false, updated_at = now() WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, profileID)
	if err != nil {
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: not found", profileID)
	}

	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, profileID uuid.UUID) (*models.PharmacistProfile, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + profileColumns + ` FROM engine_pharmacist_profiles WHERE id = $1`

	row := scope.Conn.QueryRow(ctx, query, profileID)
	profile, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Profile not found
		}
		return nil, err
	}

	return profile, nil
}

func (r *profileRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.PharmacistProfile, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + profileColumns + ` FROM engine_pharmacist_profiles
		WHERE user_id = $1 AND is_active = true
		LIMIT 1`

	row := scope.Conn.QueryRow(ctx, query, userID)
	profile, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return profile, nil
}

func (r *profileRepository) Search(ctx context.Context, filter ProfileFilter, limit, offset int) ([]*models.PharmacistProfile, int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, 0, fmt.Errorf("no tenant scope in context")
	}

	where := `WHERE is_active = true`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.RegionCode != "" {
		where += ` AND ` + arg(filter.RegionCode) + ` = ANY(preferred_regions)`
	}
	if filter.PharmacyType != "" {
		where += ` AND ` + arg(filter.PharmacyType) + ` = ANY(preferred_pharmacy_types)`
	}
	if filter.MinBudget != nil {
		where += ` AND budget_max >= ` + arg(*filter.MinBudget)
	}
	if filter.MinExperience != nil {
		where += ` AND experience_years >= ` + arg(*filter.MinExperience)
	}

	countQuery := `SELECT count(*) FROM engine_pharmacist_profiles ` + where
	var total int
	if err := scope.Conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	query := `SELECT ` + profileColumns + ` FROM engine_pharmacist_profiles ` + where +
		` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles, err := collectProfiles(rows)
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *profileRepository) ListActive(ctx context.Context) ([]*models.PharmacistProfile, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + profileColumns + ` FROM engine_pharmacist_profiles WHERE is_active = true ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active profiles: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

func scanProfile(row pgx.Row) (*models.PharmacistProfile, error) {
	var p models.PharmacistProfile
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.UserID,
		&p.AnonymousID,
		&p.PreferredRegions,
		&p.BudgetMin,
		&p.BudgetMax,
		&p.PreferredAreaMin,
		&p.PreferredAreaMax,
		&p.PreferredRevenueMin,
		&p.PreferredRevenueMax,
		&p.PreferredPharmacyTypes,
		&p.ExperienceYears,
		&p.HasManagementExperience,
		&p.SpecialtyTags,
		&p.Introduction,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.LicenseNumber,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

func collectProfiles(rows pgx.Rows) ([]*models.PharmacistProfile, error) {
	var profiles []*models.PharmacistProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}
