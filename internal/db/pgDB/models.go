package pgDB

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID
	DisplayName  string
	Email        string
	PasswordHash *string
	Role         string
	Verified     bool
	Banned       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        string
	AccountID uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	IpAddress *string
	UserAgent *string
	CreatedAt time.Time
}
