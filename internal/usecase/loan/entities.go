package loan

import (
	"time"

	domain "loans-service/internal/domain/loan"
)

const dateLayout = "2006-01-02"

type CreateLoanInput struct {
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
	Days   int    `json:"days"`
}

type LoanDTO struct {
	LoanID     string  `json:"loan_id"`
	UserID     string  `json:"user_id"`
	BookID     string  `json:"book_id"`
	StartDate  string  `json:"start_date"`
	DueDate    string  `json:"due_date"`
	Status     string  `json:"status"`
	ReturnDate *string `json:"return_date,omitempty"`
}

type LoansSummary struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

func toDTO(l *domain.Loan) *LoanDTO {
	dto := &LoanDTO{
		LoanID:    l.LoanID,
		UserID:    l.UserID,
		BookID:    l.BookID,
		StartDate: formatDate(l.StartDate),
		DueDate:   formatDate(l.DueDate),
		Status:    string(l.Status),
	}
	if l.ReturnDate != nil {
		s := formatDate(*l.ReturnDate)
		dto.ReturnDate = &s
	}
	return dto
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }
