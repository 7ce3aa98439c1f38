package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/services"
)

// MessagesHandler handles match chat HTTP requests.
type MessagesHandler struct {
	messageService services.MessageService
	detection      services.ContactDetectionService
	logger         *zap.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(messageService services.MessageService, detection services.ContactDetectionService, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{
		messageService: messageService,
		detection:      detection,
		logger:         logger,
	}
}

// RegisterRoutes registers the messages handler's routes on the given mux.
func (h *MessagesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/matches/{match_id}/messages",
		authMiddleware.RequireAuth(tenantMiddleware(h.Send)))
	mux.HandleFunc("GET /api/matches/{match_id}/messages",
		authMiddleware.RequireAuth(tenantMiddleware(h.List)))
	mux.HandleFunc("GET /api/violations",
		authMiddleware.RequireAuth(tenantMiddleware(h.ListViolations)))
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// Send handles POST /api/matches/{match_id}/messages
// Content passes through contact screening inside the service; the stored
// and returned message carries the masked text.
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	matchID, ok := ParsePathUUID(w, r, h.logger, "match_id")
	if !ok {
		return
	}

	var req sendMessageRequest
	if !DecodeBody(w, r, h.logger, &req) {
		return
	}

	message, err := h.messageService.SendMessage(r.Context(), userID, matchID, req.Content)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    message,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/matches/{match_id}/messages
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	matchID, ok := ParsePathUUID(w, r, h.logger, "match_id")
	if !ok {
		return
	}

	limit := QueryInt(r, "limit", 50)
	offset := QueryInt(r, "offset", 0)

	page, err := h.messageService.GetMessages(r.Context(), userID, matchID, limit, offset)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]any{
			"items":        page.Messages,
			"total":        page.Total,
			"unread_count": page.UnreadCount,
			"limit":        limit,
			"offset":       offset,
		},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListViolations handles GET /api/violations
// Returns the caller's own contact violation history.
func (h *MessagesHandler) ListViolations(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	limit := QueryInt(r, "limit", 50)
	history, err := h.detection.ViolationHistory(r.Context(), userID, limit)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	count, err := h.detection.ViolationCount(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]any{
			"violation_count": count,
			"items":           history,
		},
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
