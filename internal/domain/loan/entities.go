package loan

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
)

const (
	MaxLoanDays    = 15
	MaxActiveLoans = 3
)

const (
	UserStatusActive    = "active"
	BookStatusAvailable = "available"
)

// Loan is a book borrowed by a user for a bounded number of days.
// Dates are calendar days normalized to UTC midnight.
type Loan struct {
	LoanID     string     `gorm:"column:loan_id;primaryKey;size:64"`
	UserID     string     `gorm:"column:user_id;size:64;not null;index:idx_loans_user_status"`
	BookID     string     `gorm:"column:book_id;size:64;not null;index"`
	StartDate  time.Time  `gorm:"column:start_date;type:date;not null"`
	DueDate    time.Time  `gorm:"column:due_date;type:date;not null"`
	Status     Status     `gorm:"column:status;size:16;not null;index:idx_loans_user_status"`
	ReturnDate *time.Time `gorm:"column:return_date;type:date"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Loan) TableName() string { return "loans" }

// New builds an active loan whose due date is start + days.
func New(loanID, userID, bookID string, start time.Time, days int) (*Loan, error) {
	if loanID == "" || userID == "" || bookID == "" {
		return nil, errors.New("loan: id, user id and book id are required")
	}
	if err := ValidateDuration(days); err != nil {
		return nil, err
	}
	start = Date(start)
	return &Loan{
		LoanID:    loanID,
		UserID:    userID,
		BookID:    bookID,
		StartDate: start,
		DueDate:   start.AddDate(0, 0, days),
		Status:    StatusActive,
	}, nil
}

// MarkReturned moves the loan from active to returned. It never goes back.
func (l *Loan) MarkReturned(on time.Time) error {
	if l.Status != StatusActive {
		return ErrLoanNotActive
	}
	d := Date(on)
	l.Status = StatusReturned
	l.ReturnDate = &d
	return nil
}

func (l *Loan) IsActive() bool { return l.Status == StatusActive }

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// User is a point-in-time view of a user owned by the users service.
type User struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Book is a point-in-time view of a book owned by the catalog service.
type Book struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
