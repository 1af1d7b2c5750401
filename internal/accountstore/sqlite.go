package accountstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Ryan-Har/commonground/internal/db"
	"github.com/Ryan-Har/commonground/internal/db/sqliteDB"
	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
)

type sqliteAccountStore struct {
	db      *sql.DB
	queries sqliteDB.Queries
	log     *slog.Logger
	now     func() time.Time
}

func (s *sqliteAccountStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteAccountStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "CheckEmailExists")()
	i, err := s.queries.CheckEmailExists(ctx, email)
	if err != nil {
		return false, models.NewDatabaseError(err)
	}
	return i != 0, nil
}

func (s *sqliteAccountStore) CreateAccount(ctx context.Context, args models.CreateAccountParams, passwordHash string) (*models.Account, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "CreateAccount")()
	errMsg := "failed to create account"

	if err := args.Verify(); err != nil {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg, err)
	}

	row, err := s.queries.CreateAccount(ctx, sqliteDB.CreateAccountParamsFromModel(args, &passwordHash))
	if err != nil {
		if dup, dupErr := db.WrapIfDuplicateConstraint(err); dup {
			return nil, logutil.DebugAndWrapErr(s.log, errMsg,
				models.NewConflictError("account", args.Email, dupErr))
		}
		return nil, logutil.LogAndWrapErr(s.log, errMsg,
			models.NewDatabaseError(err))
	}
	return s.toModel(row, errMsg)
}

func (s *sqliteAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "GetAccountByID", "ID", id.String())()
	errMsg := "failed to get account by id"

	if id == uuid.Nil {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg,
			models.NewValidationError("id not set"))
	}

	row, err := s.queries.GetAccountByID(ctx, id.String())
	if err != nil {
		return nil, s.wrapQueryErr(errMsg, err, id.String())
	}
	return s.toModel(row, errMsg)
}

func (s *sqliteAccountStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "GetAccountByEmail")()
	errMsg := "failed to get account by email"

	row, err := s.queries.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, s.wrapQueryErr(errMsg, err, email)
	}
	return s.toModel(row, errMsg)
}

func (s *sqliteAccountStore) ListAccounts(ctx context.Context, args models.ListAccountsParams) ([]*models.Account, models.PaginationMeta, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "ListAccounts")()
	errMsg := "failed to list accounts"

	offset := args.Normalize()
	role := sqliteDB.RoleParam(args.Role)
	meta := models.NewPaginationMeta(args.Page, args.Limit, 0)

	rows, err := s.queries.ListAccountsPaginatedWithTotal(ctx, sqliteDB.ListAccountsPaginatedWithTotalParams{
		Role:   role,
		Limit:  int64(args.Limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, meta, logutil.LogAndWrapErr(s.log, errMsg, models.NewDatabaseError(err))
	}

	if len(rows) == 0 {
		// past the last page the window total is unavailable
		total, err := s.queries.CountAccounts(ctx, role)
		if err != nil {
			return nil, meta, logutil.LogAndWrapErr(s.log, errMsg, models.NewDatabaseError(err))
		}
		return []*models.Account{}, models.NewPaginationMeta(args.Page, args.Limit, int(total)), nil
	}

	meta = models.NewPaginationMeta(args.Page, args.Limit, int(rows[0].TotalCount))

	var errs []error
	accounts := make([]*models.Account, 0, len(rows))
	for _, row := range rows {
		acc, err := row.ToAccountModel()
		if err != nil {
			errs = append(errs, models.NewTransformationError(err.Error()))
			continue
		}
		accounts = append(accounts, &acc)
	}

	if len(errs) > 0 {
		return accounts, meta, errors.Join(errs...)
	}
	return accounts, meta, nil
}

func (s *sqliteAccountStore) SetBanned(ctx context.Context, id uuid.UUID, banned bool) (*models.Account, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "SetBanned", "ID", id.String(), "banned", banned)()
	errMsg := "failed to set account ban"

	row, err := s.queries.SetAccountBanned(ctx, sqliteDB.SetAccountBannedParams{
		Banned:    banned,
		UpdatedAt: s.now().Unix(),
		ID:        id.String(),
	})
	if err != nil {
		return nil, s.wrapQueryErr(errMsg, err, id.String())
	}
	return s.toModel(row, errMsg)
}

func (s *sqliteAccountStore) MarkVerified(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "MarkVerified", "ID", id.String())()
	errMsg := "failed to mark account verified"

	row, err := s.queries.MarkAccountVerified(ctx, sqliteDB.MarkAccountVerifiedParams{
		UpdatedAt: s.now().Unix(),
		ID:        id.String(),
	})
	if err != nil {
		return nil, s.wrapQueryErr(errMsg, err, id.String())
	}
	return s.toModel(row, errMsg)
}

func (s *sqliteAccountStore) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.Account, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "UpdateRole", "ID", id.String())()
	errMsg := "failed to update account role"

	if !role.IsValid() || role == models.RoleGuest {
		return nil, logutil.DebugAndWrapErr(s.log, errMsg,
			models.NewValidationError("invalid role: "+role.String()))
	}

	row, err := s.queries.UpdateAccountRole(ctx, sqliteDB.UpdateAccountRoleParams{
		Role:      role.String(),
		UpdatedAt: s.now().Unix(),
		ID:        id.String(),
	})
	if err != nil {
		return nil, s.wrapQueryErr(errMsg, err, id.String())
	}
	return s.toModel(row, errMsg)
}

func (s *sqliteAccountStore) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "DeleteAccount", "ID", id.String())()
	errMsg := "failed to delete account"

	n, err := s.queries.DeleteAccount(ctx, id.String())
	if err != nil {
		return logutil.LogAndWrapErr(s.log, errMsg, models.NewDatabaseError(err))
	}
	if n == 0 {
		return logutil.DebugAndWrapErr(s.log, errMsg, models.NewNotFoundError("account", id.String()))
	}
	return nil
}

func (s *sqliteAccountStore) wrapQueryErr(msg string, err error, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return logutil.DebugAndWrapErr(s.log, msg, models.NewNotFoundError("account", key))
	}
	return logutil.LogAndWrapErr(s.log, msg, models.NewDatabaseError(err))
}

func (s *sqliteAccountStore) toModel(row sqliteDB.Account, msg string) (*models.Account, error) {
	acc, err := row.ToAccountModel()
	if err != nil {
		return nil, logutil.LogAndWrapErr(s.log, msg, models.NewTransformationError(err.Error()))
	}
	return &acc, nil
}
