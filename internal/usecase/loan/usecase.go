package loan

import (
	"context"
	"fmt"
	"log/slog"

	domain "loans-service/internal/domain/loan"
)

// Usecase runs the create and return workflows. It keeps no state of its
// own between calls, so one instance serves concurrent requests.
type Usecase struct {
	repo  domain.Repository
	users domain.UserDirectory
	books domain.BookCatalog
	clock domain.Clock
	ids   domain.IDGenerator
	log   *slog.Logger
}

func NewUsecase(
	repo domain.Repository,
	users domain.UserDirectory,
	books domain.BookCatalog,
	clock domain.Clock,
	ids domain.IDGenerator,
	log *slog.Logger,
) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{repo: repo, users: users, books: books, clock: clock, ids: ids, log: log}
}

// Create checks, in order, the duration, the user's status, the user's
// active-loan count and the book's availability, stopping at the first
// failure. It then saves the loan and marks the book loaned.
//
// If marking the book fails the error is returned but the saved loan is
// kept as active: the two writes are not atomic and nothing reconciles them.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	log := u.log.With("user_id", in.UserID, "book_id", in.BookID, "days", in.Days)
	log.InfoContext(ctx, "creating loan")

	l, err := u.create(ctx, log, in)
	if err != nil {
		u.logFailure(ctx, log, "failed to create loan", err)
		return nil, err
	}

	log.InfoContext(ctx, "loan created", "loan_id", l.LoanID, "due_date", formatDate(l.DueDate))
	return toDTO(l), nil
}

func (u *Usecase) create(ctx context.Context, log *slog.Logger, in CreateLoanInput) (*domain.Loan, error) {
	if err := domain.ValidateDuration(in.Days); err != nil {
		return nil, err
	}

	user, err := u.users.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", in.UserID, err)
	}
	if err := domain.ValidateUserActive(user.Status); err != nil {
		return nil, err
	}

	count, err := u.users.GetActiveLoanCount(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("count active loans of %s: %w", in.UserID, err)
	}
	if err := domain.ValidateLoanCount(count); err != nil {
		return nil, err
	}

	book, err := u.books.GetBook(ctx, in.BookID)
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", in.BookID, err)
	}
	if err := domain.ValidateBookAvailable(book.Status); err != nil {
		return nil, err
	}
	log.DebugContext(ctx, "loan eligibility checks passed", "active_loans_count", count)

	l, err := domain.New(u.ids.New(), in.UserID, in.BookID, u.clock.Today(), in.Days)
	if err != nil {
		return nil, err
	}

	// From here on the two writes run to the end even if the caller gives up.
	ctx = context.WithoutCancel(ctx)
	if err := u.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save loan %s: %w", l.LoanID, err)
	}
	if err := u.books.MarkLoaned(ctx, l.BookID); err != nil {
		log.ErrorContext(ctx, "loan saved but book not marked loaned", "loan_id", l.LoanID, "error", err.Error())
		return nil, fmt.Errorf("mark book %s loaned for loan %s: %w", l.BookID, l.LoanID, err)
	}
	return l, nil
}

// Return closes an active loan and marks its book available again. The same
// partial-failure caveat as Create applies to the final remote call.
func (u *Usecase) Return(ctx context.Context, loanID string) (*LoanDTO, error) {
	log := u.log.With("loan_id", loanID)
	log.InfoContext(ctx, "returning loan")

	l, err := u.giveBack(ctx, log, loanID)
	if err != nil {
		u.logFailure(ctx, log, "failed to return loan", err)
		return nil, err
	}

	log.InfoContext(ctx, "loan returned",
		"user_id", l.UserID,
		"book_id", l.BookID,
		"return_date", formatDate(*l.ReturnDate),
	)
	return toDTO(l), nil
}

func (u *Usecase) giveBack(ctx context.Context, log *slog.Logger, loanID string) (*domain.Loan, error) {
	l, err := u.repo.Get(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("get loan %s: %w", loanID, err)
	}
	if err := l.MarkReturned(u.clock.Today()); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	if err := u.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save loan %s: %w", l.LoanID, err)
	}
	if err := u.books.MarkReturned(ctx, l.BookID); err != nil {
		log.ErrorContext(ctx, "loan returned but book not marked available", "book_id", l.BookID, "error", err.Error())
		return nil, fmt.Errorf("mark book %s returned for loan %s: %w", l.BookID, l.LoanID, err)
	}
	return l, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

// Summary lists the ids of every stored loan.
func (u *Usecase) Summary(ctx context.Context) (*LoansSummary, error) {
	ids, err := u.repo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return &LoansSummary{Count: len(ids), IDs: ids}, nil
}

func (u *Usecase) logFailure(ctx context.Context, log *slog.Logger, msg string, err error) {
	if domain.IsValidation(err) || domain.IsNotFound(err) {
		log.WarnContext(ctx, msg, "error", err.Error())
		return
	}
	log.ErrorContext(ctx, msg, "error", err.Error())
}
