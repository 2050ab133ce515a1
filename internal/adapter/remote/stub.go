package remote

import (
	"context"
	"sync"

	"loans-service/internal/domain/loan"
)

const bookStatusLoaned = "loaned"

type activeLoanCounter interface {
	CountActiveByUser(ctx context.Context, userID string) (int, error)
}

// UsersStub stands in for the users service: every user is active and the
// active-loan count comes from the local loan store.
type UsersStub struct{ loans activeLoanCounter }

func NewUsersStub(loans activeLoanCounter) *UsersStub { return &UsersStub{loans: loans} }

func (s *UsersStub) GetUser(_ context.Context, userID string) (*loan.User, error) {
	return &loan.User{ID: userID, Status: loan.UserStatusActive}, nil
}

func (s *UsersStub) GetActiveLoanCount(ctx context.Context, userID string) (int, error) {
	return s.loans.CountActiveByUser(ctx, userID)
}

// BooksStub keeps book availability in memory. Unknown books are available.
type BooksStub struct {
	mu     sync.Mutex
	status map[string]string
}

func NewBooksStub() *BooksStub { return &BooksStub{status: make(map[string]string)} }

func (s *BooksStub) GetBook(_ context.Context, bookID string) (*loan.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[bookID]
	if !ok {
		st = loan.BookStatusAvailable
	}
	return &loan.Book{ID: bookID, Status: st}, nil
}

func (s *BooksStub) MarkLoaned(_ context.Context, bookID string) error {
	s.SetStatus(bookID, bookStatusLoaned)
	return nil
}

func (s *BooksStub) MarkReturned(_ context.Context, bookID string) error {
	s.SetStatus(bookID, loan.BookStatusAvailable)
	return nil
}

func (s *BooksStub) SetStatus(bookID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[bookID] = status
}
