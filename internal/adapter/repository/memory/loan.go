package memory

import (
	"context"
	"sort"
	"sync"

	loanDomain "loans-service/internal/domain/loan"
)

// LoanRepository keeps loans in a map guarded by a mutex. Callers only ever
// see copies, so mutating a returned loan does not touch the stored one.
type LoanRepository struct {
	mu    sync.RWMutex
	loans map[string]loanDomain.Loan
}

func NewLoanRepository() *LoanRepository {
	return &LoanRepository{loans: make(map[string]loanDomain.Loan)}
}

func (r *LoanRepository) Save(_ context.Context, l *loanDomain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[l.LoanID] = clone(*l)
	return nil
}

func (r *LoanRepository) Get(_ context.Context, loanID string) (*loanDomain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loans[loanID]
	if !ok {
		return nil, loanDomain.ErrLoanNotFound
	}
	out := clone(l)
	return &out, nil
}

func (r *LoanRepository) MarkReturned(_ context.Context, loanID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loans[loanID]; ok {
		l.Status = loanDomain.StatusReturned
		r.loans[loanID] = l
	}
	return nil
}

func (r *LoanRepository) ListIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.loans))
	for id := range r.loans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *LoanRepository) CountActiveByUser(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, l := range r.loans {
		if l.UserID == userID && l.Status == loanDomain.StatusActive {
			n++
		}
	}
	return n, nil
}

func clone(l loanDomain.Loan) loanDomain.Loan {
	if l.ReturnDate != nil {
		d := *l.ReturnDate
		l.ReturnDate = &d
	}
	return l
}
