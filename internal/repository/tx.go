package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by lifecycle writes. Services translate them into typed app errors.
var (
	ErrOfficerNotFound    = errors.New("officer not found")
	ErrOfficerInactive    = errors.New("officer is not active")
	ErrScopeMismatch      = errors.New("officer scope does not match")
	ErrAssignmentNotFound = errors.New("active department assignment not found")
	ErrDuplicate          = errors.New("duplicate key")
)

const pqUniqueViolation = "23505"

// uniqueViolation wraps driver unique-constraint errors in ErrDuplicate and passes others through.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrDuplicate, liteErr)
	}
	return err
}

const driverPostgres = "postgres"

// runInTx executes fn inside one transaction, rolling back when fn or the commit fails.
func runInTx(ctx context.Context, db *sqlx.DB, label string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", label, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", label, err)
	}
	return nil
}

// lockClause returns the row-lock suffix for drivers that support it.
func lockClause(q sqlx.QueryerContext) string {
	if driverOf(q) == driverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func driverOf(q interface{}) string {
	if d, ok := q.(interface{ DriverName() string }); ok {
		return d.DriverName()
	}
	return ""
}

func snapshot(v interface{}) (types.JSONText, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return types.JSONText(raw), nil
}

func nullableJSON(j types.JSONText) interface{} {
	if len(j) == 0 {
		return nil
	}
	return string(j)
}

func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}
