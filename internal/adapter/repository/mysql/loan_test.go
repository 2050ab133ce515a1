package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	domain "loans-service/internal/domain/loan"
)

// openTestDB creates an in-memory sqlite DB with the loans schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection, one in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&domain.Loan{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(t *testing.T, loanID, userID string) *domain.Loan {
	t.Helper()
	l, err := domain.New(loanID, userID, "b1", time.Date(2025, 10, 29, 0, 0, 0, 0, time.UTC), 7)
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	return l
}

func TestSaveAndGet(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	ctx := context.Background()

	l := makeLoan(t, "6f1c2a9e-0000-4000-8000-000000000001", "u1")
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, l.LoanID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "u1" || got.BookID != "b1" || got.Status != domain.StatusActive {
		t.Errorf("unexpected loan: %+v", got)
	}
	if !got.StartDate.Equal(l.StartDate) || !got.DueDate.Equal(l.DueDate) {
		t.Errorf("dates changed: got start=%v due=%v want start=%v due=%v", got.StartDate, got.DueDate, l.StartDate, l.DueDate)
	}
	if got.ReturnDate != nil {
		t.Errorf("ReturnDate = %v, want nil", got.ReturnDate)
	}
}

func TestSave_UpsertsExistingRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	l := makeLoan(t, "l1", "u1")
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}
	returned := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	if err := l.MarkReturned(returned); err != nil {
		t.Fatalf("MarkReturned: %v", err)
	}
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	var rows int64
	db.Model(&domain.Loan{}).Count(&rows)
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	got, err := repo.Get(ctx, "l1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusReturned {
		t.Fatalf("status = %s, want returned", got.Status)
	}
	if got.ReturnDate == nil || !got.ReturnDate.Equal(returned) {
		t.Fatalf("ReturnDate = %v, want %v", got.ReturnDate, returned)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestMarkReturned_StatusOnly(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, makeLoan(t, "l1", "u1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.MarkReturned(ctx, "l1"); err != nil {
		t.Fatalf("MarkReturned: %v", err)
	}
	got, err := repo.Get(ctx, "l1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusReturned || got.ReturnDate != nil {
		t.Fatalf("unexpected loan: %+v", got)
	}
}

func TestListIDsAndCountActiveByUser(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	ctx := context.Background()

	for _, l := range []*domain.Loan{
		makeLoan(t, "c", "u1"),
		makeLoan(t, "a", "u1"),
		makeLoan(t, "b", "u2"),
	} {
		if err := repo.Save(ctx, l); err != nil {
			t.Fatalf("Save %s: %v", l.LoanID, err)
		}
	}
	if err := repo.MarkReturned(ctx, "c"); err != nil {
		t.Fatalf("MarkReturned: %v", err)
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("ids = %v", ids)
	}

	n, err := repo.CountActiveByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("CountActiveByUser: %v", err)
	}
	if n != 1 {
		t.Fatalf("active for u1 = %d, want 1", n)
	}
}
