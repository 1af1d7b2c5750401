package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan-Har/commonground/pkg/models"
)

var sessionCols = []string{"id", "account_id", "expires_at", "revoked", "revoked_at", "ip_address", "user_agent", "created_at"}

func newPostgresUnderTest(t *testing.T) (*postgresSessionStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s := NewPostgres(testLogger(), Config{TTL: time.Hour, Retention: 24 * time.Hour}, mock)
	t.Cleanup(s.Stop)
	return s, mock
}

func TestPostgresStore_Get(t *testing.T) {
	accountID := uuid.New()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns revoked rows as stored", func(t *testing.T) {
		s, mock := newPostgresUnderTest(t)
		revokedAt := now.Add(time.Minute)
		mock.ExpectQuery(`SELECT .* FROM sessions WHERE id = \$1`).
			WithArgs("tok").
			WillReturnRows(mock.NewRows(sessionCols).
				AddRow("tok", accountID, now.Add(time.Hour), true, &revokedAt, nil, nil, now))

		got, err := s.Get(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, accountID, got.AccountID)
		assert.True(t, got.Revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newPostgresUnderTest(t)
		mock.ExpectQuery(`SELECT .* FROM sessions WHERE id = \$1`).
			WithArgs("tok").
			WillReturnError(pgx.ErrNoRows)

		_, err := s.Get(context.Background(), "tok")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newPostgresUnderTest(t)
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	accountID := uuid.New()

	mock.ExpectQuery(`INSERT INTO sessions`).
		WithArgs(pgxmock.AnyArg(), accountID, fixed.Add(time.Hour), (*string)(nil), (*string)(nil), fixed).
		WillReturnRows(mock.NewRows(sessionCols).
			AddRow("tok", accountID, fixed.Add(time.Hour), false, nil, nil, nil, fixed))

	sess, err := s.Create(context.Background(), models.CreateSessionParams{AccountID: accountID})
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RevokeAllForAccount(t *testing.T) {
	s, mock := newPostgresUnderTest(t)
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	accountID := uuid.New()

	mock.ExpectExec(`UPDATE sessions SET revoked = TRUE`).
		WithArgs(fixed, accountID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := s.RevokeAllForAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CleanupExpired(t *testing.T) {
	s, mock := newPostgresUnderTest(t)
	fixed := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	mock.ExpectExec(`DELETE FROM sessions`).
		WithArgs(fixed.Add(-24 * time.Hour)).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
