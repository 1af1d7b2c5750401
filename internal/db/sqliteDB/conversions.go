package sqliteDB

import (
	"fmt"
	"time"

	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
)

func (a *Account) ToAccountModel() (models.Account, error) {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return models.Account{}, fmt.Errorf("invalid account id %q: %w", a.ID, err)
	}

	role := models.Role(a.Role)
	if !role.IsValid() {
		return models.Account{}, fmt.Errorf("invalid role %q for account %s", a.Role, a.ID)
	}

	return models.Account{
		ID:           id,
		DisplayName:  a.DisplayName,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         role,
		Verified:     a.Verified,
		Banned:       a.Banned,
		CreatedAt:    time.Unix(a.CreatedAt, 0).UTC(),
		UpdatedAt:    time.Unix(a.UpdatedAt, 0).UTC(),
	}, nil
}

func (r *ListAccountsPaginatedWithTotalRow) ToAccountModel() (models.Account, error) {
	return r.Account.ToAccountModel()
}

// CreateAccountParamsFromModel expects args already normalized and the
// password already hashed.
func CreateAccountParamsFromModel(args models.CreateAccountParams, passwordHash *string) CreateAccountParams {
	return CreateAccountParams{
		ID:           uuid.NewString(),
		DisplayName:  args.DisplayName,
		Email:        args.Email,
		PasswordHash: passwordHash,
		Role:         args.Role.String(),
	}
}

func CreateSessionParamsFromModel(args models.Session) CreateSessionParams {
	return CreateSessionParams{
		ID:        args.ID,
		AccountID: args.AccountID.String(),
		ExpiresAt: args.ExpiresAt.Unix(),
		IpAddress: args.IpAddress,
		UserAgent: args.UserAgent,
		CreatedAt: args.CreatedAt.Unix(),
	}
}

func (s *Session) ToSessionModel() (models.Session, error) {
	accountID, err := ParseUUIDAllowEmpty(s.AccountID)
	if err != nil {
		return models.Session{}, err
	}

	return models.Session{
		ID:        s.ID,
		AccountID: accountID,
		ExpiresAt: time.Unix(s.ExpiresAt, 0).UTC(),
		Revoked:   s.Revoked,
		IpAddress: s.IpAddress,
		UserAgent: s.UserAgent,
		CreatedAt: time.Unix(s.CreatedAt, 0).UTC(),
	}, nil
}

func RoleParam(role *models.Role) *string {
	if role == nil {
		return nil
	}
	s := role.String()
	return &s
}

func ParseUUIDAllowEmpty(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil // treat empty string as nil UUID
	}

	return uuid.Parse(s) // validate and parse all others
}
