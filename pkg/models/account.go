package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is a registered member of the community.
type Account struct {
	ID           uuid.UUID `json:"id"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	Banned       bool      `json:"banned"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CanPost reports whether the account may create forum content.
// Banned and unverified members can read but not write.
func (a *Account) CanPost() bool {
	return a != nil && a.Verified && !a.Banned
}

type CreateAccountParams struct {
	DisplayName string `json:"displayName" validate:"required,min=2,max=64"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Role        Role   `json:"-"`
}

// Normalize trims the display name and lowercases the email so lookups are
// case insensitive across backends.
func (p *CreateAccountParams) Normalize() {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Role == "" {
		p.Role = RoleMember
	}
}

// Verify checks the params carry what every backend needs.
func (p CreateAccountParams) Verify() error {
	if p.Email == "" {
		return NewValidationError("email not set")
	}
	if p.DisplayName == "" {
		return NewValidationError("display name not set")
	}
	if !p.Role.IsValid() {
		return NewValidationError("invalid role: " + p.Role.String())
	}
	return nil
}

// ListAccountsParams controls the paginated admin listing.
type ListAccountsParams struct {
	Page  int
	Limit int
	Role  *Role
}

// Normalize applies the listing defaults and returns the row offset.
func (p *ListAccountsParams) Normalize() (offset int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	return (p.Page - 1) * p.Limit
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPaginationMeta computes the page count for total rows.
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PaginationMeta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
