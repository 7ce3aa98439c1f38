package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/models"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
	"github.com/yakmate-inc/yakmate-engine/pkg/services"
)

// ListingsHandler handles anonymous listing HTTP requests.
type ListingsHandler struct {
	listingService services.ListingService
	screen         *InjectionScreen
	logger         *zap.Logger
}

// NewListingsHandler creates a new listings handler.
func NewListingsHandler(listingService services.ListingService, screen *InjectionScreen, logger *zap.Logger) *ListingsHandler {
	return &ListingsHandler{
		listingService: listingService,
		screen:         screen,
		logger:         logger,
	}
}

// RegisterRoutes registers the listings handler's routes on the given mux.
func (h *ListingsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/listings",
		authMiddleware.RequireAuth(tenantMiddleware(h.Create)))
	mux.HandleFunc("GET /api/listings",
		authMiddleware.RequireAuth(tenantMiddleware(h.Search)))
	mux.HandleFunc("GET /api/listings/{listing_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Get)))
	mux.HandleFunc("PUT /api/listings/{listing_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Update)))
	mux.HandleFunc("DELETE /api/listings/{listing_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.Withdraw)))
}

type listingRequest struct {
	RegionCode     string   `json:"region_code"`
	RegionName     string   `json:"region_name"`
	PharmacyType   string   `json:"pharmacy_type"`
	PremiumMin     int64    `json:"premium_min"`
	PremiumMax     int64    `json:"premium_max"`
	Deposit        int64    `json:"deposit"`
	MonthlyRentFee int64    `json:"monthly_rent_fee"`
	RevenueMin     int64    `json:"revenue_min"`
	RevenueMax     int64    `json:"revenue_max"`
	AreaMin        float64  `json:"area_min"`
	AreaMax        float64  `json:"area_max"`
	StaffCount     int      `json:"staff_count"`
	NearbyHospital bool     `json:"nearby_hospital"`
	Description    string   `json:"description"`
	ExactAddress   string   `json:"exact_address"`
	PharmacyName   string   `json:"pharmacy_name"`
	OwnerPhone     string   `json:"owner_phone"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

func (req *listingRequest) toModel() *models.AnonymousListing {
	return &models.AnonymousListing{
		RegionCode:     req.RegionCode,
		RegionName:     req.RegionName,
		PharmacyType:   req.PharmacyType,
		PremiumMin:     req.PremiumMin,
		PremiumMax:     req.PremiumMax,
		Deposit:        req.Deposit,
		MonthlyRentFee: req.MonthlyRentFee,
		RevenueMin:     req.RevenueMin,
		RevenueMax:     req.RevenueMax,
		AreaMin:        req.AreaMin,
		AreaMax:        req.AreaMax,
		StaffCount:     req.StaffCount,
		NearbyHospital: req.NearbyHospital,
		Description:    req.Description,
		ExactAddress:   req.ExactAddress,
		PharmacyName:   req.PharmacyName,
		OwnerPhone:     req.OwnerPhone,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}
}

// Create handles POST /api/listings
func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	tenantID, _ := identityFromClaims(r)

	var req listingRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}
	if !h.screen.Check(w, r, map[string]string{
		"description":   req.Description,
		"pharmacy_name": req.PharmacyName,
		"exact_address": req.ExactAddress,
	}) {
		return
	}

	listing := req.toModel()
	listing.TenantID = tenantID
	listing.OwnerID = userID

	if err := h.listingService.CreateListing(r.Context(), listing); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    listing,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Search handles GET /api/listings
func (h *ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	filter := repositories.ListingFilter{
		RegionCode:   r.URL.Query().Get("region_code"),
		RegionPrefix: r.URL.Query().Get("region_prefix"),
		PharmacyType: r.URL.Query().Get("pharmacy_type"),
		MaxTotalCost: QueryInt64Ptr(r, "max_total_cost"),
		AreaMin:      QueryFloatPtr(r, "area_min"),
		AreaMax:      QueryFloatPtr(r, "area_max"),
		RevenueFloor: QueryInt64Ptr(r, "revenue_floor"),
	}
	limit := QueryInt(r, "limit", 20)
	offset := QueryInt(r, "offset", 0)

	results, total, err := h.listingService.SearchListings(r.Context(), userID, filter, limit, offset)
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

// Get handles GET /api/listings/{listing_id}
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	listingID, ok := ParsePathUUID(w, r, h.logger, "listing_id")
	if !ok {
		return
	}

	projection, tier, err := h.listingService.GetListing(r.Context(), userID, listingID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]any{
			"listing":         projection,
			"visibility_tier": tier,
		},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/listings/{listing_id}
func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	listingID, ok := ParsePathUUID(w, r, h.logger, "listing_id")
	if !ok {
		return
	}

	var req listingRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}
	if !h.screen.Check(w, r, map[string]string{
		"description":   req.Description,
		"pharmacy_name": req.PharmacyName,
		"exact_address": req.ExactAddress,
	}) {
		return
	}

	listing := req.toModel()
	listing.ID = listingID

	if err := h.listingService.UpdateListing(r.Context(), userID, listing); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    listing,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Withdraw handles DELETE /api/listings/{listing_id}
func (h *ListingsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	listingID, ok := ParsePathUUID(w, r, h.logger, "listing_id")
	if !ok {
		return
	}

	if err := h.listingService.WithdrawListing(r.Context(), userID, listingID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Listing withdrawn",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
