package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// ClassificationRepository persists classification labels, baselines and the change log.
type ClassificationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewClassificationRepository constructs the repository.
func NewClassificationRepository(db *sqlx.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ManualParams sets (Manual non-nil) or clears (Manual nil) the override of one officer.
type ManualParams struct {
	OfficerID     string
	Manual        *models.Classification
	ExpectedScope models.Scope
	ChangedBy     string
	Audit         *models.AuditEntry
}

// SetManual writes the override, the change log entry and the audit entry in one transaction.
func (r *ClassificationRepository) SetManual(ctx context.Context, params ManualParams) (*models.Officer, error) {
	now := r.now()
	var updated *models.Officer
	err := runInTx(ctx, r.db, "manual classification", func(tx *sqlx.Tx) error {
		current, err := lockOfficer(ctx, tx, params.OfficerID)
		if err != nil {
			return err
		}
		if err := checkScope(current, params.ExpectedScope); err != nil {
			return err
		}

		next := *current
		next.ClassificationManual = params.Manual
		next.UpdatedAt = now
		const query = `UPDATE officers SET classification_manual = $1, updated_at = $2 WHERE id = $3`
		res, err := tx.ExecContext(ctx, query, next.ClassificationManual, now, next.ID)
		if err != nil {
			return fmt.Errorf("update manual classification: %w", err)
		}
		if err := expectRow(res, ErrOfficerNotFound); err != nil {
			return err
		}

		source := models.ChangeSourceManual
		if params.Manual == nil {
			source = models.ChangeSourceManualCleared
		}
		change := &models.ClassificationChange{
			OfficerID:          next.ID,
			District:           next.District,
			Congregation:       next.Congregation,
			FromClassification: current.EffectiveClassification(),
			ToClassification:   next.EffectiveClassification(),
			Source:             source,
			ChangedBy:          params.ChangedBy,
			ChangedAt:          now,
		}
		if err := insertClassificationChange(ctx, tx, change); err != nil {
			return err
		}
		if err := auditRows(ctx, tx, params.Audit, current, &next, now); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ApplyAuto stores a recomputed automatic label. It reports false without writing when the
// stored label already matches.
func (r *ClassificationRepository) ApplyAuto(ctx context.Context, officerID string, auto *models.Classification, changedBy string) (bool, error) {
	now := r.now()
	changed := false
	err := runInTx(ctx, r.db, "auto classification", func(tx *sqlx.Tx) error {
		current, err := lockOfficer(ctx, tx, officerID)
		if err != nil {
			return err
		}
		if sameClassification(current.ClassificationAuto, auto) {
			return nil
		}
		if err := writeAuto(ctx, tx, current, auto, changedBy, now); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

// InsertBaselines records new baselines. Older rows are kept; readers use the latest one.
func (r *ClassificationRepository) InsertBaselines(ctx context.Context, baselines []models.Baseline, audit *models.AuditEntry) error {
	if len(baselines) == 0 {
		return nil
	}
	now := r.now()
	return runInTx(ctx, r.db, "baseline reset", func(tx *sqlx.Tx) error {
		for i := range baselines {
			b := &baselines[i]
			if b.ID == "" {
				b.ID = uuid.NewString()
			}
			if b.ResetAt.IsZero() {
				b.ResetAt = now
			}
			const query = `INSERT INTO classification_baselines (id, district, congregation, classification, period, reset_at, reset_by)
VALUES (:id, :district, :congregation, :classification, :period, :reset_at, :reset_by)`
			if _, err := sqlx.NamedExecContext(ctx, tx, query, b); err != nil {
				return fmt.Errorf("insert classification baseline: %w", err)
			}
		}
		return auditRows(ctx, tx, audit, nil, baselines, now)
	})
}

// LatestBaseline returns the newest baseline for the key, or nil when none was ever recorded.
func (r *ClassificationRepository) LatestBaseline(ctx context.Context, scope models.Scope, classification models.Classification, period models.BaselinePeriod) (*models.Baseline, error) {
	const query = `SELECT id, district, congregation, classification, period, reset_at, reset_by
FROM classification_baselines
WHERE district = $1 AND congregation = $2 AND classification = $3 AND period = $4
ORDER BY reset_at DESC LIMIT 1`
	var baseline models.Baseline
	if err := r.db.GetContext(ctx, &baseline, query, scope.District, scope.Congregation, string(classification), string(period)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest classification baseline: %w", err)
	}
	return &baseline, nil
}

// CountAdded counts active officers with the effective label created at or after since.
func (r *ClassificationRepository) CountAdded(ctx context.Context, scope models.Scope, classification models.Classification, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM officers
WHERE district = $1 AND congregation = $2 AND is_active = TRUE
	AND COALESCE(classification_manual, classification_auto) = $3
	AND created_at >= $4`
	var total int
	if err := r.db.GetContext(ctx, &total, query, scope.District, scope.Congregation, string(classification), since); err != nil {
		return 0, fmt.Errorf("count added officers: %w", err)
	}
	return total, nil
}

// CountRemoved counts transferred-out officers with the effective label whose deactivation
// (or last update for legacy rows without one) is at or after since.
func (r *ClassificationRepository) CountRemoved(ctx context.Context, scope models.Scope, classification models.Classification, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM officers
WHERE district = $1 AND congregation = $2 AND status = $3
	AND COALESCE(classification_manual, classification_auto) = $4
	AND COALESCE(deactivated_at, updated_at) >= $5`
	var total int
	if err := r.db.GetContext(ctx, &total, query, scope.District, scope.Congregation,
		string(models.OfficerStatusTransferredOut), string(classification), since); err != nil {
		return 0, fmt.Errorf("count removed officers: %w", err)
	}
	return total, nil
}

// ListChanges returns change log entries newest first.
func (r *ClassificationRepository) ListChanges(ctx context.Context, filter models.ClassificationChangeFilter) ([]models.ClassificationChangeRecord, int, error) {
	var conditions []string
	var args []interface{}
	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("c.district = $%d", len(args)))
	}
	if filter.Congregation != "" {
		args = append(args, filter.Congregation)
		conditions = append(conditions, fmt.Sprintf("c.congregation = $%d", len(args)))
	}
	if filter.Source != "" {
		args = append(args, string(filter.Source))
		conditions = append(conditions, fmt.Sprintf("c.source = $%d", len(args)))
	}
	if filter.ClearedBefore != nil {
		args = append(args, *filter.ClearedBefore)
		conditions = append(conditions, fmt.Sprintf("c.changed_at > $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf(`SELECT c.id, c.officer_id, c.district, c.congregation, c.from_classification, c.to_classification,
	c.source, c.changed_by, c.changed_at, %s
FROM classification_changes c
JOIN officers o ON o.id = c.officer_id%s
ORDER BY c.changed_at DESC LIMIT %d OFFSET %d`, identityColumns, where, pageSize, offset)

	var rows []models.ClassificationChangeRecord
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list classification changes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM classification_changes c"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count classification changes: %w", err)
	}
	return rows, total, nil
}

// writeAuto stores the automatic label of current and logs the move from its previous one.
func writeAuto(ctx context.Context, ext sqlx.ExtContext, current *models.Officer, auto *models.Classification, changedBy string, at time.Time) error {
	const query = `UPDATE officers SET classification_auto = $1, updated_at = $2 WHERE id = $3`
	res, err := ext.ExecContext(ctx, query, auto, at, current.ID)
	if err != nil {
		return fmt.Errorf("update auto classification: %w", err)
	}
	if err := expectRow(res, ErrOfficerNotFound); err != nil {
		return err
	}
	return insertClassificationChange(ctx, ext, &models.ClassificationChange{
		OfficerID:          current.ID,
		District:           current.District,
		Congregation:       current.Congregation,
		FromClassification: current.ClassificationAuto,
		ToClassification:   auto,
		Source:             models.ChangeSourceAuto,
		ChangedBy:          changedBy,
		ChangedAt:          at,
	})
}

func insertClassificationChange(ctx context.Context, ext sqlx.ExtContext, change *models.ClassificationChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	const query = `INSERT INTO classification_changes (id, officer_id, district, congregation, from_classification, to_classification, source, changed_by, changed_at)
VALUES (:id, :officer_id, :district, :congregation, :from_classification, :to_classification, :source, :changed_by, :changed_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, change); err != nil {
		return fmt.Errorf("insert classification change: %w", err)
	}
	return nil
}
