package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Validation failures are returned before anything is written.
var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidContributionType = errors.New("invalid contribution type")
	ErrInvalidGoal             = errors.New("invalid goal")
	ErrTooEarly                = errors.New("contribution window is not open yet")
	ErrOverAmendment           = errors.New("cannot amend more than the missing amount")
	ErrUnauthenticated         = errors.New("not authenticated")
)

var (
	ErrStoreFailure  = errors.New("store failure")
	ErrRewardFailure = errors.New("reward award failed")
)

// TooEarlyError carries the instant the goal's next window opens.
type TooEarlyError struct {
	NextEligibleAt time.Time
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("%s: next contribution allowed at %s", ErrTooEarly, e.NextEligibleAt.Format(time.RFC3339))
}

func (e *TooEarlyError) Unwrap() error {
	return ErrTooEarly
}

// OverAmendmentError carries the shortfall the amendment was checked against.
type OverAmendmentError struct {
	Requested decimal.Decimal
	Missing   decimal.Decimal
}

func (e *OverAmendmentError) Error() string {
	return fmt.Sprintf("%s: requested %s, missing %s", ErrOverAmendment, e.Requested.StringFixed(2), e.Missing.StringFixed(2))
}

func (e *OverAmendmentError) Unwrap() error {
	return ErrOverAmendment
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}

func invalidGoal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGoal, fmt.Sprintf(format, args...))
}
