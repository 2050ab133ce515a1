package loanmock

import (
	"context"
	"sync"

	domain "loans-service/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// A nil func falls back to a harmless default.
type Repo struct {
	SaveFn              func(ctx context.Context, l *domain.Loan) error
	GetFn               func(ctx context.Context, loanID string) (*domain.Loan, error)
	MarkReturnedFn      func(ctx context.Context, loanID string) error
	ListIDsFn           func(ctx context.Context) ([]string, error)
	CountActiveByUserFn func(ctx context.Context, userID string) (int, error)

	mu    sync.Mutex
	Saved []domain.Loan
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, *l)
	m.mu.Unlock()
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, loanID)
	}
	return nil, domain.ErrLoanNotFound
}

func (m *Repo) MarkReturned(ctx context.Context, loanID string) error {
	if m.MarkReturnedFn != nil {
		return m.MarkReturnedFn(ctx, loanID)
	}
	return nil
}

func (m *Repo) ListIDs(ctx context.Context) ([]string, error) {
	if m.ListIDsFn != nil {
		return m.ListIDsFn(ctx)
	}
	return nil, nil
}

func (m *Repo) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	if m.CountActiveByUserFn != nil {
		return m.CountActiveByUserFn(ctx, userID)
	}
	return 0, nil
}

func (m *Repo) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}
