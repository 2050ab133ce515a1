package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "loans-service/internal/domain/loan"
	"loans-service/internal/infrastructure/pg"
)

func makeLoan(t *testing.T, loanID, userID string) *domain.Loan {
	t.Helper()
	l, err := domain.New(loanID, userID, "b1", time.Date(2025, 10, 29, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	return l
}

func Test_saveQuery_IsPreparedUpsert(t *testing.T) {
	sql, args, err := saveQuery(makeLoan(t, "l1", "u1"))
	require.NoError(t, err)

	assert.Contains(t, sql, `INSERT INTO "loans"`)
	assert.Contains(t, sql, `ON CONFLICT (loan_id) DO UPDATE SET`)
	assert.Contains(t, sql, `"excluded"."status"`)
	assert.Contains(t, sql, "$1")
	assert.Contains(t, args, "l1")
	assert.Contains(t, args, "u1")
	assert.Contains(t, args, "active")
}

func Test_saveQuery_CarriesReturnDate(t *testing.T) {
	l := makeLoan(t, "l1", "u1")
	returned := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, l.MarkReturned(returned))

	_, args, err := saveQuery(l)
	require.NoError(t, err)
	assert.Contains(t, args, "returned")
	assert.Contains(t, args, returned)
}

func Test_getQuery(t *testing.T) {
	sql, args, err := getQuery("l1")
	require.NoError(t, err)

	assert.Contains(t, sql, `FROM "loans"`)
	assert.Contains(t, sql, `"loan_id" = $1`)
	assert.Contains(t, sql, `"return_date"`)
	assert.Equal(t, []any{"l1"}, args)
}

func Test_markReturnedQuery(t *testing.T) {
	sql, args, err := markReturnedQuery("l1")
	require.NoError(t, err)

	assert.Contains(t, sql, `UPDATE "loans" SET`)
	assert.Contains(t, args, "returned")
	assert.Contains(t, args, "l1")
}

func Test_countActiveQuery(t *testing.T) {
	sql, args, err := countActiveQuery("u1")
	require.NoError(t, err)

	assert.Contains(t, sql, "COUNT(*)")
	assert.Equal(t, []any{"u1", "active"}, args)
}

// Runs against a real database only when LOANS_TEST_POSTGRES_DSN is set.
func Test_lostCreateRace(t *testing.T) {
	assert.True(t, lostCreateRace(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, lostCreateRace(fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.DuplicateTable})))
	assert.False(t, lostCreateRace(&pgconn.PgError{Code: pgerrcode.InsufficientPrivilege}))
	assert.False(t, lostCreateRace(errors.New("connection reset")))
}

func TestLoanRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("LOANS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOANS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pg.OpenPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewLoanRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	user := uuid.NewString()
	l := makeLoan(t, uuid.NewString(), user)
	require.NoError(t, repo.Save(ctx, l))

	got, err := repo.Get(ctx, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, l.UserID, got.UserID)
	assert.True(t, got.DueDate.Equal(l.DueDate))
	assert.Nil(t, got.ReturnDate)

	n, err := repo.CountActiveByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, l.MarkReturned(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, repo.Save(ctx, l))

	got, err = repo.Get(ctx, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, got.Status)
	require.NotNil(t, got.ReturnDate)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, l.LoanID)

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}
