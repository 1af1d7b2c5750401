package pgDB

import (
	"fmt"

	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
)

func (a *Account) ToAccountModel() (models.Account, error) {
	role := models.Role(a.Role)
	if !role.IsValid() {
		return models.Account{}, fmt.Errorf("invalid role %q for account %s", a.Role, a.ID)
	}
	return models.Account{
		ID:           a.ID,
		DisplayName:  a.DisplayName,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         role,
		Verified:     a.Verified,
		Banned:       a.Banned,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}, nil
}

func (r *ListAccountsPaginatedWithTotalRow) ToAccountModel() (models.Account, error) {
	return r.Account.ToAccountModel()
}

// CreateAccountParamsFromModel expects args already normalized and the
// password already hashed.
func CreateAccountParamsFromModel(args models.CreateAccountParams, passwordHash *string) CreateAccountParams {
	return CreateAccountParams{
		ID:           uuid.New(),
		DisplayName:  args.DisplayName,
		Email:        args.Email,
		PasswordHash: passwordHash,
		Role:         args.Role.String(),
	}
}

func CreateSessionParamsFromModel(args models.Session) CreateSessionParams {
	return CreateSessionParams{
		ID:        args.ID,
		AccountID: args.AccountID,
		ExpiresAt: args.ExpiresAt,
		IpAddress: args.IpAddress,
		UserAgent: args.UserAgent,
		CreatedAt: args.CreatedAt,
	}
}

func (s *Session) ToSessionModel() models.Session {
	return models.Session{
		ID:        s.ID,
		AccountID: s.AccountID,
		ExpiresAt: s.ExpiresAt.UTC(),
		Revoked:   s.Revoked,
		IpAddress: s.IpAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt.UTC(),
	}
}

func RoleParam(role *models.Role) *string {
	if role == nil {
		return nil
	}
	s := role.String()
	return &s
}
