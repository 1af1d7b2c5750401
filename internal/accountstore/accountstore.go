package accountstore

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Ryan-Har/commonground/internal/db/pgDB"
	"github.com/Ryan-Har/commonground/internal/db/sqliteDB"
	"github.com/Ryan-Har/commonground/pkg/models"
	"github.com/google/uuid"
)

// PgxPool is the subset of *pgxpool.Pool the Postgres store needs.
type PgxPool interface {
	pgDB.DBTX
	Ping(ctx context.Context) error
}

func NewWithSqliteStore(db *sql.DB, logger *slog.Logger) *sqliteAccountStore {
	return &sqliteAccountStore{
		db:      db,
		queries: *sqliteDB.New(db),
		log:     logger,
		now:     time.Now,
	}
}

func NewWithPostgresStore(pool PgxPool, logger *slog.Logger) *postgresAccountStore {
	return &postgresAccountStore{
		pool:    pool,
		queries: *pgDB.New(pool),
		log:     logger,
		now:     time.Now,
	}
}

// Store defines a unified interface for interacting with the account datastore.
// It abstracts storage-specific implementations (SQLite, Postgres) behind
// consistent operations used by handlers and the session guard.
//
// All methods return error types defined in the models package:
// ValidationError for bad input, NotFoundError when a keyed row is missing,
// ConflictError for duplicate e-mails, TransformationError and DatabaseError
// for everything else.
type Store interface {
	Ping(ctx context.Context) error

	// CheckEmailExists returns true if an account with the specified email exists.
	CheckEmailExists(ctx context.Context, email string) (bool, error)

	// CreateAccount inserts a new account. args must already be normalized;
	// passwordHash is stored as given.
	CreateAccount(ctx context.Context, args models.CreateAccountParams, passwordHash string) (*models.Account, error)

	// GetAccountByID returns a NotFoundError if no account has the id.
	GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)

	// GetAccountByEmail returns a NotFoundError if no account has the email.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// ListAccounts returns one page of accounts, oldest first.
	// Rows that fail to transform are skipped and reported via errors.Join.
	ListAccounts(ctx context.Context, args models.ListAccountsParams) ([]*models.Account, models.PaginationMeta, error)

	SetBanned(ctx context.Context, id uuid.UUID, banned bool) (*models.Account, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.Account, error)

	// DeleteAccount permanently removes the account. Sessions are left in
	// place and fail resolution with "account not found".
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}
