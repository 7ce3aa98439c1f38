package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/audit"
	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/logging"
)

// TenantMiddleware is a function that wraps a handler with tenant context.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// DecodeBody decodes the request body into dst, writing a 400 on failure.
// Returns false when the response has already been written.
func DecodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

// ParsePathUUID parses the named path segment as a UUID, writing a 400 on
// failure.
func ParsePathUUID(w http.ResponseWriter, r *http.Request, logger *zap.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+name, "Invalid "+name+" format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// RequireUserID resolves the authenticated user's UUID, writing a 401 when
// the claims are absent or malformed.
func RequireUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "User identity not found in token"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return userID, true
}

// QueryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// QueryInt64Ptr reads an optional int64 query parameter.
func QueryInt64Ptr(r *http.Request, name string) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// QueryFloatPtr reads an optional float64 query parameter.
func QueryFloatPtr(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// InjectionScreen checks free-text request fields with libinjection before
// they reach the service layer. Hits are audited and rejected with a 400.
type InjectionScreen struct {
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewInjectionScreen creates a new InjectionScreen.
func NewInjectionScreen(auditor *audit.SecurityAuditor, logger *zap.Logger) *InjectionScreen {
	return &InjectionScreen{auditor: auditor, logger: logger}
}

// Check screens the named fields. Returns false after writing a 400 when any
// field carries an injection pattern.
func (s *InjectionScreen) Check(w http.ResponseWriter, r *http.Request, fields map[string]string) bool {
	for name, value := range fields {
		if value == "" {
			continue
		}
		isSQLi, fingerprint := libinjection.IsSQLi(value)
		if !isSQLi {
			continue
		}

		tenantID, userID := identityFromClaims(r)
		s.auditor.LogInjectionAttempt(tenantID, userID, audit.InjectionDetails{
			FieldName:   name,
			Fingerprint: string(fingerprint),
		})
		s.logger.Warn("Rejected request field",
			zap.String("field", name),
			zap.String("value", logging.SanitizeUserText(value)))

		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_input", "Request field rejected"); err != nil {
			s.logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

func identityFromClaims(r *http.Request) (uuid.UUID, uuid.UUID) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil
	}
	tenantID, _ := claims.TenantUUID()
	userID, _ := claims.UserID()
	return tenantID, userID
}
