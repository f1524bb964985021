package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// ViewMarkerRepository stores "cleared up to" markers for report lists. Markers only affect
// what a list shows; ledger and audit rows are never touched.
type ViewMarkerRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewViewMarkerRepository constructs the repository.
func NewViewMarkerRepository(db *sqlx.DB) *ViewMarkerRepository {
	return &ViewMarkerRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create appends a marker stamped with the current time.
func (r *ViewMarkerRepository) Create(ctx context.Context, marker *models.ViewMarker, audit *models.AuditEntry) error {
	now := r.now()
	if marker.ID == "" {
		marker.ID = uuid.NewString()
	}
	marker.ClearedAt = now
	if audit != nil && audit.RecordID == "" {
		audit.RecordID = marker.ID
	}
	return runInTx(ctx, r.db, "view clear", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO view_markers (id, view_name, district, congregation, cleared_at, cleared_by)
VALUES (:id, :view_name, :district, :congregation, :cleared_at, :cleared_by)`
		if _, err := sqlx.NamedExecContext(ctx, tx, query, marker); err != nil {
			return fmt.Errorf("insert view marker: %w", err)
		}
		return auditRows(ctx, tx, audit, nil, marker, now)
	})
}

// Latest returns the newest marker for the view and congregation, or nil.
func (r *ViewMarkerRepository) Latest(ctx context.Context, view string, scope models.Scope) (*models.ViewMarker, error) {
	const query = `SELECT id, view_name, district, congregation, cleared_at, cleared_by FROM view_markers
WHERE view_name = $1 AND district = $2 AND congregation = $3 ORDER BY cleared_at DESC LIMIT 1`
	var marker models.ViewMarker
	if err := r.db.GetContext(ctx, &marker, query, view, scope.District, scope.Congregation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest view marker: %w", err)
	}
	return &marker, nil
}
