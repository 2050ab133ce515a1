package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	loanDomain "loans-service/internal/domain/loan"
)

const table = "loans"

const schema = `
CREATE TABLE IF NOT EXISTS loans (
	loan_id     VARCHAR(64) PRIMARY KEY,
	user_id     VARCHAR(64) NOT NULL,
	book_id     VARCHAR(64) NOT NULL,
	start_date  DATE        NOT NULL,
	due_date    DATE        NOT NULL,
	status      VARCHAR(16) NOT NULL,
	return_date DATE        NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_loans_user_status ON loans (user_id, status);
`

var (
	dialect = goqu.Dialect("postgres")
	columns = []any{"loan_id", "user_id", "book_id", "start_date", "due_date", "status", "return_date"}
)

// DBTX is the subset of *pgxpool.Pool (and pgx.Tx) the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type LoanRepository struct{ db DBTX }

func NewLoanRepository(db DBTX) *LoanRepository { return &LoanRepository{db: db} }

// Migrate creates the loans table when missing. Two instances starting
// together can race on CREATE TABLE IF NOT EXISTS; the loser's error is
// ignored since the table exists either way.
func (r *LoanRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	if err != nil && !lostCreateRace(err) {
		return fmt.Errorf("migrate loans: %w", err)
	}
	return nil
}

func lostCreateRace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation || pgErr.Code == pgerrcode.DuplicateTable
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	sql, args, err := saveQuery(l)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *LoanRepository) Get(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	sql, args, err := getQuery(loanID)
	if err != nil {
		return nil, err
	}
	var (
		out    loanDomain.Loan
		status string
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&out.LoanID, &out.UserID, &out.BookID, &out.StartDate, &out.DueDate, &status, &out.ReturnDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, loanDomain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	out.Status = loanDomain.Status(status)
	out.StartDate = loanDomain.Date(out.StartDate)
	out.DueDate = loanDomain.Date(out.DueDate)
	if out.ReturnDate != nil {
		d := loanDomain.Date(*out.ReturnDate)
		out.ReturnDate = &d
	}
	return &out, nil
}

func (r *LoanRepository) MarkReturned(ctx context.Context, loanID string) error {
	sql, args, err := markReturnedQuery(loanID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *LoanRepository) ListIDs(ctx context.Context) ([]string, error) {
	sql, args, err := dialect.From(table).Select("loan_id").Order(goqu.C("loan_id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *LoanRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	sql, args, err := countActiveQuery(userID)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func saveQuery(l *loanDomain.Loan) (string, []any, error) {
	var returnDate any
	if l.ReturnDate != nil {
		returnDate = *l.ReturnDate
	}
	return dialect.Insert(table).
		Rows(goqu.Record{
			"loan_id":     l.LoanID,
			"user_id":     l.UserID,
			"book_id":     l.BookID,
			"start_date":  l.StartDate,
			"due_date":    l.DueDate,
			"status":      string(l.Status),
			"return_date": returnDate,
		}).
		OnConflict(goqu.DoUpdate("loan_id", goqu.Record{
			"user_id":     goqu.I("excluded.user_id"),
			"book_id":     goqu.I("excluded.book_id"),
			"start_date":  goqu.I("excluded.start_date"),
			"due_date":    goqu.I("excluded.due_date"),
			"status":      goqu.I("excluded.status"),
			"return_date": goqu.I("excluded.return_date"),
			"updated_at":  goqu.L("now()"),
		})).
		Prepared(true).
		ToSQL()
}

func getQuery(loanID string) (string, []any, error) {
	return dialect.From(table).
		Select(columns...).
		Where(goqu.C("loan_id").Eq(loanID)).
		Prepared(true).
		ToSQL()
}

func markReturnedQuery(loanID string) (string, []any, error) {
	return dialect.Update(table).
		Set(goqu.Record{"status": string(loanDomain.StatusReturned), "updated_at": goqu.L("now()")}).
		Where(goqu.C("loan_id").Eq(loanID)).
		Prepared(true).
		ToSQL()
}

func countActiveQuery(userID string) (string, []any, error) {
	return dialect.From(table).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("user_id").Eq(userID),
			goqu.C("status").Eq(string(loanDomain.StatusActive)),
		).
		Prepared(true).
		ToSQL()
}
