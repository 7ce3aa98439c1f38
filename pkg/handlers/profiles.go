package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
	"github.com/yakmate-inc/yakmate-engine/pkg/services"
)

// ProfilesHandler handles pharmacist profile HTTP requests.
type ProfilesHandler struct {
	profileService services.ProfileService
	screen         *InjectionScreen
	logger         *zap.Logger
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(profileService services.ProfileService, screen *InjectionScreen, logger *zap.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		profileService: profileService,
		screen:         screen,
		logger:         logger,
	}
}

// RegisterRoutes registers the profiles handler's routes on the given mux.
func (h *ProfilesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/profiles",
		authMiddleware.RequireAuth(tenantMiddleware(h.Create)))
	mux.HandleFunc("GET /api/profiles",
		authMiddleware.RequireAuth(tenantMiddleware(h.Search)))
	mux.HandleFunc("GET /api/profiles/me",
		authMiddleware.RequireAuth(tenantMiddleware(h.GetOwn)))
	mux.HandleFunc("GET /api/profiles/{profile_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Get)))
	mux.HandleFunc("PUT /api/profiles/{profile_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Update)))
	mux.HandleFunc("DELETE /api/profiles/{profile_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Deactivate)))
}

type profileRequest struct {
	PreferredRegions        []string `json:"preferred_regions"`
	BudgetMin               int64    `json:"budget_min"`
	BudgetMax               int64    `json:"budget_max"`
	PreferredAreaMin        float64  `json:"preferred_area_min"`
	PreferredAreaMax        float64  `json:"preferred_area_max"`
	PreferredRevenueMin     int64    `json:"preferred_revenue_min"`
	PreferredRevenueMax     int64    `json:"preferred_revenue_max"`
	PreferredPharmacyTypes  []string `json:"preferred_pharmacy_types"`
	ExperienceYears         int      `json:"experience_years"`
	HasManagementExperience bool     `json:"has_management_experience"`
	SpecialtyTags           []string `json:"specialty_tags"`
	Introduction            string   `json:"introduction"`
	Name                    string   `json:"name"`
	Phone                   string   `json:"phone"`
	Email                   string   `json:"email"`
	LicenseNumber           string   `json:"license_number"`
}

func (req *profileRequest) toModel() *models.PharmacistProfile {
	return &models.PharmacistProfile{
		PreferredRegions:        req.PreferredRegions,
		BudgetMin:               req.BudgetMin,
		BudgetMax:               req.BudgetMax,
		PreferredAreaMin:        req.PreferredAreaMin,
		PreferredAreaMax:        req.PreferredAreaMax,
		PreferredRevenueMin:     req.PreferredRevenueMin,
		PreferredRevenueMax:     req.PreferredRevenueMax,
		PreferredPharmacyTypes:  req.PreferredPharmacyTypes,
		ExperienceYears:         req.ExperienceYears,
		HasManagementExperience: req.HasManagementExperience,
		SpecialtyTags:           req.SpecialtyTags,
		Introduction:            req.Introduction,
		Name:                    req.Name,
		Phone:                   req.Phone,
		Email:                   req.Email,
		LicenseNumber:           req.LicenseNumber,
	}
}

// Create handles POST /api/profiles
func (h *ProfilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	tenantID, _ := identityFromClaims(r)

	var req profileRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}
	if !h.screen.Check(w, r, map[string]string{
		"introduction": req.Introduction,
		"name":         req.Name,
	}) {
		return
	}

	profile := req.toModel()
	profile.TenantID = tenantID
	profile.UserID = userID

	if err := h.profileService.CreateProfile(r.Context(), profile); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    profile,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Search handles GET /api/profiles
func (h *ProfilesHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var minExperience *int
	if v := QueryInt(r, "min_experience", -1); v >= 0 {
		minExperience = &v
	}
	filter := repositories.ProfileFilter{
		RegionCode:    r.URL.Query().Get("region_code"),
		PharmacyType:  r.URL.Query().Get("pharmacy_type"),
		MinBudget:     QueryInt64Ptr(r, "min_budget"),
		MinExperience: minExperience,
	}
	limit := QueryInt(r, "limit", 20)
	offset := QueryInt(r, "offset", 0)

	results, total, err := h.profileService.SearchProfiles(r.Context(), userID, filter, limit, offset)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if results == nil {
		results = make([]map[string]any, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: PaginatedResponse{
			Items:  results,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetOwn handles GET /api/profiles/me
func (h *ProfilesHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.profileService.GetOwnProfile(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    profile,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/profiles/{profile_id}
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	profileID, ok := ParsePathUUID(w, r, h.logger, "profile_id")
	if !ok {
		return
	}

	projection, tier, err := h.profileService.GetProfile(r.Context(), userID, profileID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]any{
			"profile":         projection,
			"visibility_tier": tier,
		},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/profiles/{profile_id}
func (h *ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	profileID, ok := ParsePathUUID(w, r, h.logger, "profile_id")
	if !ok {
		return
	}

	var req profileRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}
	if !h.screen.Check(w, r, map[string]string{
		"introduction": req.Introduction,
		"name":         req.Name,
	}) {
		return
	}

	profile := req.toModel()
	profile.ID = profileID

	if err := h.profileService.UpdateProfile(r.Context(), userID, profile); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    profile,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Deactivate handles DELETE /api/profiles/{profile_id}
func (h *ProfilesHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	profileID, ok := ParsePathUUID(w, r, h.logger, "profile_id")
	if !ok {
		return
	}

	if err := h.profileService.DeactivateProfile(r.Context(), userID, profileID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Profile deactivated",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
