package timesheet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeFormat = errors.New("time must be HH:MM in 24-hour format")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateEntry    = errors.New("hours already submitted for this date")
	ErrMonthClosed       = errors.New("month is closed for submissions")
	ErrNoHoursRecorded   = errors.New("no hours recorded for this date")
	ErrTipsNotFound      = errors.New("no tips recorded for this date")
	ErrStoreUnavailable  = errors.New("record store temporarily unavailable")
	ErrMalformedRecord   = errors.New("malformed record in sheet")
)

// Retryable reports whether the caller may retry the operation unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// storeFailure passes business errors through and reports everything else
// coming out of the backing store or the lock layer as unavailable.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrDuplicateEntry, ErrMalformedRecord, ErrStoreUnavailable, ErrInvalidInput, ErrNoHoursRecorded, ErrMonthClosed} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
