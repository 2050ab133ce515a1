package http

import (
	"errors"
	"strings"
	"testing"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestCreateLoanReqValidation(t *testing.T) {
	cv := NewValidator()

	if err := cv.Validate(createLoanReq{UserID: "u1", BookID: "b1"}); err != nil {
		t.Fatalf("expected valid request, got err: %v", err)
	}

	err := cv.Validate(createLoanReq{})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)
	if !containsFieldMsg(fe, "user_id", "is required") {
		t.Fatalf("missing 'is required' for user_id: %+v", fe)
	}
	if !containsFieldMsg(fe, "book_id", "is required") {
		t.Fatalf("missing 'is required' for book_id: %+v", fe)
	}
}

func TestNotBlankValidation(t *testing.T) {
	cv := NewValidator()

	for _, s := range []string{" ", "\t", "  \n "} {
		err := cv.Validate(createLoanReq{UserID: s, BookID: "b1"})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "user_id", "must not be blank") {
			t.Fatalf("expected notblank message for %q, got %+v", s, fe)
		}
	}
}

func TestMaxLengthMapping(t *testing.T) {
	cv := NewValidator()

	err := cv.Validate(createLoanReq{UserID: "u1", BookID: strings.Repeat("b", 129)})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if fe := ToFieldErrors(err); !containsFieldMsg(fe, "book_id", "at most 128") {
		t.Fatalf("missing max message: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}
