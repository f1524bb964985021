package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// HeadcountRepository reads the materialized per-congregation officer totals. The counter is
// only ever changed by relative upserts executed inside lifecycle transactions.
type HeadcountRepository struct {
	db *sqlx.DB
}

// NewHeadcountRepository constructs the repository.
func NewHeadcountRepository(db *sqlx.DB) *HeadcountRepository {
	return &HeadcountRepository{db: db}
}

// Get returns the counter row for the congregation. A congregation without a row has a
// zero headcount, reported with a zero LastUpdated.
func (r *HeadcountRepository) Get(ctx context.Context, scope models.Scope) (*models.Headcount, error) {
	const query = `SELECT district, congregation, total_count, last_updated FROM headcount WHERE district = $1 AND congregation = $2`
	var row models.Headcount
	if err := r.db.GetContext(ctx, &row, query, scope.District, scope.Congregation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Headcount{District: scope.District, Congregation: scope.Congregation}, nil
		}
		return nil, fmt.Errorf("get headcount: %w", err)
	}
	return &row, nil
}

// ListByDistrict returns every counter row of a district ordered by congregation.
func (r *HeadcountRepository) ListByDistrict(ctx context.Context, district string) ([]models.Headcount, error) {
	const query = `SELECT district, congregation, total_count, last_updated FROM headcount WHERE district = $1 ORDER BY congregation ASC`
	var rows []models.Headcount
	if err := r.db.SelectContext(ctx, &rows, query, district); err != nil {
		return nil, fmt.Errorf("list headcount: %w", err)
	}
	return rows, nil
}

// CountActive counts active officers in the congregation straight from the officer table.
func (r *HeadcountRepository) CountActive(ctx context.Context, scope models.Scope) (int, error) {
	const query = `SELECT COUNT(*) FROM officers WHERE district = $1 AND congregation = $2 AND is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, scope.District, scope.Congregation); err != nil {
		return 0, fmt.Errorf("count active officers: %w", err)
	}
	return total, nil
}

func incrementHeadcount(ctx context.Context, ext sqlx.ExtContext, scope models.Scope, at time.Time) error {
	const query = `INSERT INTO headcount (district, congregation, total_count, last_updated) VALUES ($1, $2, 1, $3)
ON CONFLICT (district, congregation) DO UPDATE SET total_count = headcount.total_count + 1, last_updated = EXCLUDED.last_updated`
	if _, err := ext.ExecContext(ctx, query, scope.District, scope.Congregation, at); err != nil {
		return fmt.Errorf("increment headcount: %w", err)
	}
	return nil
}

// decrementHeadcount lowers the counter by one and never below zero.
func decrementHeadcount(ctx context.Context, ext sqlx.ExtContext, scope models.Scope, at time.Time) error {
	const query = `INSERT INTO headcount (district, congregation, total_count, last_updated) VALUES ($1, $2, 0, $3)
ON CONFLICT (district, congregation) DO UPDATE SET total_count = CASE WHEN headcount.total_count > 0 THEN headcount.total_count - 1 ELSE 0 END, last_updated = EXCLUDED.last_updated`
	if _, err := ext.ExecContext(ctx, query, scope.District, scope.Congregation, at); err != nil {
		return fmt.Errorf("decrement headcount: %w", err)
	}
	return nil
}
