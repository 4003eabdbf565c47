package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/partforge/sourcing-backend/internal/domain"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("engine validation")
	// ErrNotEligible indicates a supplier below threshold or a closed RFQ.
	ErrNotEligible = errors.New("engine not eligible")
	// ErrConflict indicates optimistic/concurrency conflict.
	ErrConflict = errors.New("engine conflict")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("engine retryable")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// NotEligibleError tags an error as eligibility failure.
func NotEligibleError(msg string) error {
	return errors.Join(ErrNotEligible, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// RetryableError tags an error as retryable failure.
func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure failures into engine error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domain.Error); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domain.Wrap(domain.CodeValidation, op, err)
	case errors.Is(err, ErrNotEligible):
		return domain.Wrap(domain.CodeNotEligible, op, err)
	case errors.Is(err, ErrConflict):
		return domain.Wrap(domain.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return domain.Wrap(domain.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Wrap(domain.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Wrap(domain.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domain.Wrap(domain.CodeConflict, op, err) // unique_violation
		case "23503":
			return domain.Wrap(domain.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domain.Wrap(domain.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return domain.Wrap(domain.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domain.Wrap(domain.CodeRetryable, op, err)
	default:
		return domain.Wrap(domain.CodeInternal, op, err)
	}
}
