/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All validation failure modes in one place. Each check in the request
  validator surfaces a distinct sentinel so callers can branch with
  errors.Is, and a structured error carrying the offending values for
  user-facing messages.

ERROR CATEGORIES:
  1. Validation failures - business rule violations on new requests
  2. Data-shape failures - malformed upstream rows (dropped, not fatal)
  3. Transition failures - illegal status machine moves

USAGE:
  if errors.Is(err, leave.ErrOverlap) { ... }

  var qe *leave.QuotaError
  if errors.As(err, &qe) {
      fmt.Println(qe.Scope, qe.Used, qe.Requested, qe.Cap)
  }

SEE ALSO:
  - validate.go: produces these errors in check order
  - normalize.go: drops rows instead of erroring
*/
package leave

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingFields is returned when a request lacks a leave type,
	// a start date, or a positive day count.
	ErrMissingFields = errors.New("missing required request fields")

	// ErrInsufficientBalance is returned when the requested days exceed
	// the known remaining balance.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrExceedsTypeCap is returned when the requested days exceed the
	// leave type's per-request cap.
	ErrExceedsTypeCap = errors.New("exceeds leave type cap")

	// ErrExceedsSpanCap is returned when the requested days exceed the
	// absolute single-request span cap.
	ErrExceedsSpanCap = errors.New("exceeds maximum request span")

	// ErrStartNonWorking is returned when a non-sick request starts on
	// a weekly off-day or holiday.
	ErrStartNonWorking = errors.New("start date is a non-working day")

	// ErrEmergencyQuota is returned when an emergency-leave request
	// would exceed the yearly or monthly emergency quota.
	ErrEmergencyQuota = errors.New("emergency leave quota exceeded")

	// ErrOverlap is returned when the request's range intersects an
	// existing pending or approved request.
	ErrOverlap = errors.New("overlaps an existing request")

	// ErrInvalidTransition is returned for illegal status changes.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateSubmission is returned when a create carries a dedup
	// key that was already used.
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BalanceError details an insufficient-balance rejection.
type BalanceError struct {
	Requested int
	Remaining decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d days, %s remaining",
		e.Requested, e.Remaining.String())
}

func (e *BalanceError) Unwrap() error { return ErrInsufficientBalance }

// CapError details a per-type or span cap rejection.
type CapError struct {
	Requested int
	Cap       int
	TypeCode  string // empty for the absolute span cap
}

func (e *CapError) Error() string {
	if e.TypeCode != "" {
		return fmt.Sprintf("%s allows at most %d days per request, got %d",
			e.TypeCode, e.Cap, e.Requested)
	}
	return fmt.Sprintf("a single request may span at most %d days, got %d",
		e.Cap, e.Requested)
}

func (e *CapError) Unwrap() error {
	if e.TypeCode != "" {
		return ErrExceedsTypeCap
	}
	return ErrExceedsSpanCap
}

// QuotaScope names which emergency quota was exceeded.
type QuotaScope string

const (
	QuotaYearly  QuotaScope = "yearly"
	QuotaMonthly QuotaScope = "monthly"
)

// QuotaError details an emergency-leave quota rejection.
type QuotaError struct {
	Scope     QuotaScope
	Used      int
	Requested int
	Cap       int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("emergency leave %s quota exceeded: %d used + %d requested > %d",
		e.Scope, e.Used, e.Requested, e.Cap)
}

func (e *QuotaError) Unwrap() error { return ErrEmergencyQuota }

// OverlapError details an overlap rejection.
type OverlapError struct {
	ExistingID    string
	ExistingStart time.Time
	ExistingEnd   time.Time
	Status        Status
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps %s request %s (%s to %s)",
		e.Status, e.ExistingID,
		e.ExistingStart.Format("2006-01-02"), e.ExistingEnd.Format("2006-01-02"))
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// TransitionError details an illegal status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move request from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError reports whether the error is a request-validation
// rejection (client-correctable, as opposed to an internal failure).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrExceedsTypeCap) ||
		errors.Is(err, ErrExceedsSpanCap) ||
		errors.Is(err, ErrStartNonWorking) ||
		errors.Is(err, ErrEmergencyQuota) ||
		errors.Is(err, ErrOverlap)
}
