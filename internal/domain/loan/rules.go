package loan

func ValidateDuration(days int) error {
	if days < 1 || days > MaxLoanDays {
		return ErrInvalidDuration
	}
	return nil
}

func ValidateUserActive(status string) error {
	if status != UserStatusActive {
		return ErrUserNotActive
	}
	return nil
}

func ValidateLoanCount(active int) error {
	if active >= MaxActiveLoans {
		return ErrLoanLimitExceeded
	}
	return nil
}

func ValidateBookAvailable(status string) error {
	if status != BookStatusAvailable {
		return ErrBookNotAvailable
	}
	return nil
}
