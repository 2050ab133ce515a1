package loan

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert keyed by LoanID
	Save(ctx context.Context, l *Loan) error
	// ErrLoanNotFound when absent
	Get(ctx context.Context, loanID string) (*Loan, error)
	// Status-only update, no-op when the loan does not exist
	MarkReturned(ctx context.Context, loanID string) error

	ListIDs(ctx context.Context) ([]string, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	GetActiveLoanCount(ctx context.Context, userID string) (int, error)
}

type BookCatalog interface {
	GetBook(ctx context.Context, bookID string) (*Book, error)
	MarkLoaned(ctx context.Context, bookID string) error
	MarkReturned(ctx context.Context, bookID string) error
}

type Clock interface {
	Today() time.Time
}

type IDGenerator interface {
	New() string
}
