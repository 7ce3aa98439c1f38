package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/services"
)

// MatchesHandler handles interest and match HTTP requests.
type MatchesHandler struct {
	matchService services.MatchService
	screen       *InjectionScreen
	logger       *zap.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(matchService services.MatchService, screen *InjectionScreen, logger *zap.Logger) *MatchesHandler {
	return &MatchesHandler{
		matchService: matchService,
		screen:       screen,
		logger:       logger,
	}
}

// RegisterRoutes registers the matches handler's routes on the given mux.
func (h *MatchesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/interests",
		authMiddleware.RequireAuth(tenantMiddleware(h.ExpressInterest)))
	mux.HandleFunc("GET /api/interests",
		authMiddleware.RequireAuth(tenantMiddleware(h.ListInterests)))
	mux.HandleFunc("DELETE /api/interests/{interest_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.CancelInterest)))
	mux.HandleFunc("GET /api/matches",
		authMiddleware.RequireAuth(tenantMiddleware(h.ListMatches)))
	mux.HandleFunc("GET /api/matches/{match_id}",
		authMiddleware.RequireAuth(tenantMiddleware(h.GetMatch)))
	mux.HandleFunc("PATCH /api/matches/{match_id}/status",
		authMiddleware.RequireAuth(tenantMiddleware(h.UpdateStatus)))
}

type expressInterestRequest struct {
	ListingID uuid.UUID `json:"listing_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Direction string    `json:"direction"`
	Message   string    `json:"message"`
}

// ExpressInterest handles POST /api/interests
func (h *MatchesHandler) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req expressInterestRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}
	if !h.screen.Check(w, r, map[string]string{"message": req.Message}) {
		return
	}

	result, err := h.matchService.ExpressInterest(r.Context(), userID, req.ListingID, req.ProfileID, req.Direction, req.Message)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	status := http.StatusCreated
	data := map[string]any{"interest": result.Interest}
	if result.Match != nil {
		// Mutual interest completed a match; both sides now see contact
		// details.
		data["match"] = result.Match
	}

	if err := WriteJSON(w, status, ApiResponse{
		Success: true,
		Data:    data,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListInterests handles GET /api/interests
func (h *MatchesHandler) ListInterests(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	sent, received, err := h.matchService.GetInterests(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]any{
			"sent":     sent,
			"received": received,
		},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CancelInterest handles DELETE /api/interests/{interest_id}
func (h *MatchesHandler) CancelInterest(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	interestID, ok := ParsePathUUID(w, r, h.logger, "interest_id")
	if !ok {
		return
	}

	if err := h.matchService.CancelInterest(r.Context(), userID, interestID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Interest cancelled",
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListMatches handles GET /api/matches
func (h *MatchesHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	matches, err := h.matchService.GetMatches(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    matches,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetMatch handles GET /api/matches/{match_id}
func (h *MatchesHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	matchID, ok := ParsePathUUID(w, r, h.logger, "match_id")
	if !ok {
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), userID, matchID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    match,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

type updateMatchStatusRequest struct {
	Status    string     `json:"status"`
	Reason    string     `json:"reason"`
	MeetingAt *time.Time `json:"meeting_at,omitempty"`
}

// UpdateStatus handles PATCH /api/matches/{match_id}/status
func (h *MatchesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	matchID, ok := ParsePathUUID(w, r, h.logger, "match_id")
	if !ok {
		return
	}

	var req updateMatchStatusRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}

	match, err := h.matchService.UpdateMatchStatus(r.Context(), userID, matchID, req.Status, req.Reason, req.MeetingAt)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    match,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
