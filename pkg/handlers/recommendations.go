package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/services"
)

// RecommendationsHandler handles recommendation HTTP requests.
type RecommendationsHandler struct {
	recommendationService services.RecommendationService
	logger                *zap.Logger
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(recommendationService services.RecommendationService, logger *zap.Logger) *RecommendationsHandler {
	return &RecommendationsHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// RegisterRoutes registers the recommendations handler's routes on the given mux.
func (h *RecommendationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("GET /api/recommendations/listings",
		authMiddleware.RequireAuth(tenantMiddleware(h.Listings)))
	mux.HandleFunc("GET /api/listings/{listing_id}/recommendations",
		authMiddleware.RequireAuth(tenantMiddleware(h.Profiles)))
}

// Listings handles GET /api/recommendations/listings
// Ranks active listings against the caller's profile.
func (h *RecommendationsHandler) Listings(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	recs, err := h.recommendationService.RecommendListings(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if recs == nil {
		recs = make([]services.Recommendation, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    recs,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Profiles handles GET /api/listings/{listing_id}/recommendations
// Ranks active profiles against one of the caller's listings.
func (h *RecommendationsHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	listingID, ok := ParsePathUUID(w, r, h.logger, "listing_id")
	if !ok {
		return
	}

	recs, err := h.recommendationService.RecommendProfiles(r.Context(), userID, listingID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if recs == nil {
		recs = make([]services.Recommendation, 0)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    recs,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
