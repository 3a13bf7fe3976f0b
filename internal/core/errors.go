package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ValidationError reports a malformed document or request: empty line list,
// nonpositive quantity, committing an already-committed document, and so on.
// Not retryable until the client corrects the input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing catalog entity or document.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.Ref) }

func notFound(entity string, ref any) *NotFoundError {
	return &NotFoundError{Entity: entity, Ref: fmt.Sprint(ref)}
}

// Shortfall names one (material, project) pair a commit would drive negative.
type Shortfall struct {
	MaterialID   int              `json:"material_id"`
	MaterialCode string           `json:"code"`
	ProjectID    *int             `json:"project_id,omitempty"`
	Available    decimal.Decimal  `json:"available"`
	Requested    decimal.Decimal  `json:"requested"`
	Short        decimal.Decimal  `json:"short"`
}

// InsufficientStockError rejects a whole document whose commit would leave
// at least one stock row negative. The document remains draft and no stock
// row is touched.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	codes := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		codes[i] = fmt.Sprintf("%s (short %s)", s.MaterialCode, s.Short)
	}
	return "insufficient stock: " + strings.Join(codes, ", ")
}

// ConflictError marks a commit that lost a race on overlapping stock keys.
// The caller may retry the commit from scratch against fresh state.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string { return "commit conflict: " + e.Err.Error() }
func (e *ConflictError) Unwrap() error { return e.Err }

// asConflict converts Postgres serialization failures, deadlocks, and lock
// timeouts into ConflictError; every other error passes through unchanged.
func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return &ConflictError{Err: err}
		}
	}
	return err
}
