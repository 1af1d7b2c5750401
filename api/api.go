package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ryan-Har/commonground/pkg/models"
)

// RespondJSONAndLog is a convenience wrapper around RespondJSON that also logs any encoding errors.
func RespondJSONAndLog(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if err := RespondJSON(w, status, payload); err != nil {
		logger.Debug("failed to respond with JSON", "err", err)
	}
}

// RespondJSON sets the status code and Content-Type header, then encodes
// payload into the response body.
//
// Returns an error only if JSON encoding fails, usually because the writer
// is closed or the payload is not serializable.
func RespondJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(payload)
}

// RegisterRequest defines model for RegisterRequest.
type RegisterRequest = models.CreateAccountParams

// LoginRequest defines model for LoginRequest.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse defines model for LoginResponse.
type LoginResponse struct {
	Account   models.Account `json:"account"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type AccountResponse struct {
	Account models.Account `json:"account"`
}

type LogoutAllResponse struct {
	Revoked int64 `json:"revoked"`
}

type VerificationResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// CapabilitiesResponse tells a client which forum actions to offer. Guests
// get every flag false.
type CapabilitiesResponse struct {
	Authenticated bool         `json:"authenticated"`
	Role          models.Role  `json:"role"`
	CanPost       bool         `json:"canPost"`
	CanModerate   bool         `json:"canModerate"`
	CanPublish    bool         `json:"canPublish"`
	Account       *AccountInfo `json:"account,omitempty"`
}

// AccountInfo is the public subset of an account shown next to forum content.
type AccountInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type FileResponse struct {
	ID   string `json:"id"`
	Size int64  `json:"size"`
}

type GetAccountsResponse struct {
	Accounts []models.Account     `json:"accounts"`
	Meta     models.PaginationMeta `json:"meta"`
}

type BanResponse struct {
	Account         models.Account `json:"account"`
	RevokedSessions int64          `json:"revokedSessions"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
