package loanmock

import (
	"context"
	"sync"

	domain "loans-service/internal/domain/loan"
)

// Calls records method names in invocation order.
type Calls struct {
	mu    sync.Mutex
	names []string
}

func (c *Calls) add(name string) {
	c.mu.Lock()
	c.names = append(c.names, name)
	c.mu.Unlock()
}

func (c *Calls) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// Users satisfies domain.UserDirectory. Defaults: active user, zero loans.
type Users struct {
	Calls
	GetUserFn            func(ctx context.Context, userID string) (*domain.User, error)
	GetActiveLoanCountFn func(ctx context.Context, userID string) (int, error)
}

func (m *Users) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	m.add("GetUser")
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, userID)
	}
	return &domain.User{ID: userID, Status: domain.UserStatusActive}, nil
}

func (m *Users) GetActiveLoanCount(ctx context.Context, userID string) (int, error) {
	m.add("GetActiveLoanCount")
	if m.GetActiveLoanCountFn != nil {
		return m.GetActiveLoanCountFn(ctx, userID)
	}
	return 0, nil
}

// Books satisfies domain.BookCatalog. Defaults: available book, writes succeed.
type Books struct {
	Calls
	GetBookFn      func(ctx context.Context, bookID string) (*domain.Book, error)
	MarkLoanedFn   func(ctx context.Context, bookID string) error
	MarkReturnedFn func(ctx context.Context, bookID string) error
}

func (m *Books) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	m.add("GetBook")
	if m.GetBookFn != nil {
		return m.GetBookFn(ctx, bookID)
	}
	return &domain.Book{ID: bookID, Status: domain.BookStatusAvailable}, nil
}

func (m *Books) MarkLoaned(ctx context.Context, bookID string) error {
	m.add("MarkLoaned")
	if m.MarkLoanedFn != nil {
		return m.MarkLoanedFn(ctx, bookID)
	}
	return nil
}

func (m *Books) MarkReturned(ctx context.Context, bookID string) error {
	m.add("MarkReturned")
	if m.MarkReturnedFn != nil {
		return m.MarkReturnedFn(ctx, bookID)
	}
	return nil
}
