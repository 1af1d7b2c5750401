package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents the data stored for a single signed-in session.
type Session struct {
	ID        string    // Opaque token carried by the session cookie
	AccountID uuid.UUID // Account that owns this session
	ExpiresAt time.Time // When the session becomes invalid
	Revoked   bool      // Set on logout, never cleared
	CreatedAt time.Time // When the session was created
	IpAddress *string   // Optional ip address
	UserAgent *string   // Optional UserAgent
}

// Expired reports whether expiry is not strictly after now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Usable reports whether the session may authenticate a request at now.
func (s *Session) Usable(now time.Time) bool {
	return !s.Expired(now) && !s.Revoked
}

// CreateSessionParams holds the request metadata recorded alongside a new session.
type CreateSessionParams struct {
	AccountID uuid.UUID
	IpAddress *string
	UserAgent *string
}

// Principal is the authenticated account attached to a request.
type Principal struct {
	Account   Account
	SessionID string
}

// HasRole reports whether the principal's role is at least min.
func (p *Principal) HasRole(min Role) bool {
	return p != nil && p.Account.Role.AtLeast(min)
}
