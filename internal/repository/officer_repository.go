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

const officerColumns = `id, ref_no, district, congregation, purok, grupo, control_number, registry_number,
	last_name, first_name, middle_name, suffix, birthdate, is_active, status,
	classification_auto, classification_manual, created_at, updated_at, deactivated_at`

const assignmentColumns = `id, officer_id, department, duty, oath_date, is_active, removed_at, created_at`

// OfficerRepository provides officer reads and the single-officer maintenance writes.
type OfficerRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewOfficerRepository constructs the repository.
func NewOfficerRepository(db *sqlx.DB) *OfficerRepository {
	return &OfficerRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FindByID returns an officer or ErrOfficerNotFound.
func (r *OfficerRepository) FindByID(ctx context.Context, id string) (*models.Officer, error) {
	return getOfficer(ctx, r.db, "id = $1", id, "")
}

// FindByRefNo returns an officer by its shareable reference number.
func (r *OfficerRepository) FindByRefNo(ctx context.Context, refNo string) (*models.Officer, error) {
	return getOfficer(ctx, r.db, "ref_no = $1", refNo, "")
}

// FindByEncryptedNumber matches a deterministic ciphertext against the registry or control
// number column within one district.
func (r *OfficerRepository) FindByEncryptedNumber(ctx context.Context, district, column, ciphertext string) ([]models.Officer, error) {
	if column != "registry_number" && column != "control_number" {
		return nil, fmt.Errorf("unsupported lookup column %q", column)
	}
	query := fmt.Sprintf("SELECT %s FROM officers WHERE district = $1 AND %s = $2 ORDER BY created_at ASC", officerColumns, column)
	var officers []models.Officer
	if err := r.db.SelectContext(ctx, &officers, query, district, ciphertext); err != nil {
		return nil, fmt.Errorf("lookup officers by %s: %w", column, err)
	}
	return officers, nil
}

// List returns officers matching the filter with the total count.
func (r *OfficerRepository) List(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, int, error) {
	var conditions []string
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.District != "" {
		add("district = $%d", filter.District)
	}
	if filter.Congregation != "" {
		add("congregation = $%d", filter.Congregation)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Purok != "" {
		add("purok = $%d", filter.Purok)
	}
	if filter.Grupo != "" {
		add("grupo = $%d", filter.Grupo)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM officers%s ORDER BY created_at DESC LIMIT %d OFFSET %d", officerColumns, where, pageSize, offset)
	var officers []models.Officer
	if err := r.db.SelectContext(ctx, &officers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list officers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM officers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count officers: %w", err)
	}
	return officers, total, nil
}

// ListActiveInScope returns every active officer of a congregation.
func (r *OfficerRepository) ListActiveInScope(ctx context.Context, scope models.Scope) ([]models.Officer, error) {
	query := fmt.Sprintf("SELECT %s FROM officers WHERE district = $1 AND congregation = $2 AND is_active = TRUE ORDER BY created_at ASC", officerColumns)
	var officers []models.Officer
	if err := r.db.SelectContext(ctx, &officers, query, scope.District, scope.Congregation); err != nil {
		return nil, fmt.Errorf("list active officers: %w", err)
	}
	return officers, nil
}

// ListAssignments returns an officer's department history, oldest oath first.
func (r *OfficerRepository) ListAssignments(ctx context.Context, officerID string, activeOnly bool) ([]models.DepartmentAssignment, error) {
	if activeOnly {
		return activeAssignments(ctx, r.db, officerID)
	}
	query := fmt.Sprintf("SELECT %s FROM department_assignments WHERE officer_id = $1 ORDER BY created_at ASC", assignmentColumns)
	var items []models.DepartmentAssignment
	if err := r.db.SelectContext(ctx, &items, query, officerID); err != nil {
		return nil, fmt.Errorf("list department assignments: %w", err)
	}
	return items, nil
}

// BirthdateParams describes a birthdate correction together with the recomputed automatic label.
type BirthdateParams struct {
	OfficerID     string
	Birthdate     *string
	Auto          *models.Classification
	ExpectedScope models.Scope
	ChangedBy     string
	Audit         *models.AuditEntry
}

// UpdateBirthdate stores the new ciphertext and automatic classification atomically, logging a
// classification change when the automatic label moves.
func (r *OfficerRepository) UpdateBirthdate(ctx context.Context, params BirthdateParams) (*models.Officer, error) {
	now := r.now()
	var updated *models.Officer
	err := runInTx(ctx, r.db, "birthdate update", func(tx *sqlx.Tx) error {
		current, err := lockOfficer(ctx, tx, params.OfficerID)
		if err != nil {
			return err
		}
		if err := checkScope(current, params.ExpectedScope); err != nil {
			return err
		}

		next := *current
		next.Birthdate = params.Birthdate
		next.ClassificationAuto = params.Auto
		next.UpdatedAt = now

		const query = `UPDATE officers SET birthdate = $1, classification_auto = $2, updated_at = $3 WHERE id = $4`
		res, err := tx.ExecContext(ctx, query, next.Birthdate, next.ClassificationAuto, now, next.ID)
		if err != nil {
			return fmt.Errorf("update officer birthdate: %w", err)
		}
		if err := expectRow(res, ErrOfficerNotFound); err != nil {
			return err
		}
		if !sameClassification(current.ClassificationAuto, params.Auto) {
			change := &models.ClassificationChange{
				OfficerID:          next.ID,
				District:           next.District,
				Congregation:       next.Congregation,
				FromClassification: current.ClassificationAuto,
				ToClassification:   params.Auto,
				Source:             models.ChangeSourceAuto,
				ChangedBy:          params.ChangedBy,
				ChangedAt:          now,
			}
			if err := insertClassificationChange(ctx, tx, change); err != nil {
				return err
			}
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

// AddAssignment appends a department assignment to an active officer.
func (r *OfficerRepository) AddAssignment(ctx context.Context, assignment *models.DepartmentAssignment, expected models.Scope, audit *models.AuditEntry) error {
	now := r.now()
	return runInTx(ctx, r.db, "assignment add", func(tx *sqlx.Tx) error {
		officer, err := lockOfficer(ctx, tx, assignment.OfficerID)
		if err != nil {
			return err
		}
		if err := checkScope(officer, expected); err != nil {
			return err
		}
		if !officer.IsActive {
			return ErrOfficerInactive
		}
		if err := insertAssignment(ctx, tx, assignment, now); err != nil {
			return err
		}
		return auditRows(ctx, tx, audit, nil, assignment, now)
	})
}

// EndAssignment closes an active assignment, keeping the row as history.
func (r *OfficerRepository) EndAssignment(ctx context.Context, officerID, assignmentID string, expected models.Scope, audit *models.AuditEntry) error {
	now := r.now()
	return runInTx(ctx, r.db, "assignment end", func(tx *sqlx.Tx) error {
		officer, err := lockOfficer(ctx, tx, officerID)
		if err != nil {
			return err
		}
		if err := checkScope(officer, expected); err != nil {
			return err
		}
		const query = `UPDATE department_assignments SET is_active = FALSE, removed_at = $1 WHERE id = $2 AND officer_id = $3 AND is_active = TRUE`
		res, err := tx.ExecContext(ctx, query, now, assignmentID, officerID)
		if err != nil {
			return fmt.Errorf("end department assignment: %w", err)
		}
		if err := expectRow(res, ErrAssignmentNotFound); err != nil {
			return err
		}
		after := map[string]interface{}{"id": assignmentID, "officer_id": officerID, "is_active": false, "removed_at": now}
		return auditRows(ctx, tx, audit, nil, after, now)
	})
}

func getOfficer(ctx context.Context, q sqlx.QueryerContext, where string, arg interface{}, suffix string) (*models.Officer, error) {
	query := fmt.Sprintf("SELECT %s FROM officers WHERE %s%s", officerColumns, where, suffix)
	var officer models.Officer
	if err := sqlx.GetContext(ctx, q, &officer, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfficerNotFound
		}
		return nil, fmt.Errorf("get officer: %w", err)
	}
	return &officer, nil
}

// lockOfficer re-reads the officer inside tx, taking a row lock where the driver supports it.
func lockOfficer(ctx context.Context, tx *sqlx.Tx, id string) (*models.Officer, error) {
	return getOfficer(ctx, tx, "id = $1", id, lockClause(tx))
}

func checkScope(officer *models.Officer, expected models.Scope) error {
	if expected.District == "" && expected.Congregation == "" {
		return nil
	}
	if !strings.EqualFold(officer.District, expected.District) || officer.Congregation != expected.Congregation {
		return ErrScopeMismatch
	}
	return nil
}

func activeAssignments(ctx context.Context, q sqlx.QueryerContext, officerID string) ([]models.DepartmentAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM department_assignments WHERE officer_id = $1 AND is_active = TRUE ORDER BY oath_date ASC, created_at ASC", assignmentColumns)
	var items []models.DepartmentAssignment
	if err := sqlx.SelectContext(ctx, q, &items, query, officerID); err != nil {
		return nil, fmt.Errorf("list active department assignments: %w", err)
	}
	return items, nil
}

func insertOfficer(ctx context.Context, ext sqlx.ExtContext, officer *models.Officer) error {
	if officer.ID == "" {
		officer.ID = uuid.NewString()
	}
	const query = `INSERT INTO officers (id, ref_no, district, congregation, purok, grupo, control_number, registry_number,
	last_name, first_name, middle_name, suffix, birthdate, is_active, status, classification_auto, classification_manual,
	created_at, updated_at, deactivated_at)
VALUES (:id, :ref_no, :district, :congregation, :purok, :grupo, :control_number, :registry_number,
	:last_name, :first_name, :middle_name, :suffix, :birthdate, :is_active, :status, :classification_auto, :classification_manual,
	:created_at, :updated_at, :deactivated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, officer); err != nil {
		return fmt.Errorf("insert officer: %w", uniqueViolation(err))
	}
	return nil
}

func insertAssignment(ctx context.Context, ext sqlx.ExtContext, assignment *models.DepartmentAssignment, at time.Time) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.IsActive = true
	assignment.RemovedAt = nil
	assignment.CreatedAt = at
	const query = `INSERT INTO department_assignments (id, officer_id, department, duty, oath_date, is_active, removed_at, created_at)
VALUES (:id, :officer_id, :department, :duty, :oath_date, :is_active, :removed_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, assignment); err != nil {
		return fmt.Errorf("insert department assignment: %w", err)
	}
	return nil
}

// deactivateOfficer flips the active flag only if it is still set, so a concurrent
// deactivation that slipped past the read is caught on every driver.
func deactivateOfficer(ctx context.Context, ext sqlx.ExtContext, id string, status models.OfficerStatus, at time.Time) error {
	const query = `UPDATE officers SET is_active = FALSE, status = $1, deactivated_at = $2, updated_at = $2 WHERE id = $3 AND is_active = TRUE`
	res, err := ext.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("deactivate officer: %w", err)
	}
	return expectRow(res, ErrOfficerInactive)
}

func deactivateAssignments(ctx context.Context, ext sqlx.ExtContext, officerID string, at time.Time) error {
	const query = `UPDATE department_assignments SET is_active = FALSE, removed_at = $1 WHERE officer_id = $2 AND is_active = TRUE`
	if _, err := ext.ExecContext(ctx, query, at, officerID); err != nil {
		return fmt.Errorf("deactivate department assignments: %w", err)
	}
	return nil
}

// expectRow returns missing when an UPDATE matched no row.
func expectRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}

// auditRows snapshots before/after and appends the audit entry in tx.
func auditRows(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditEntry, before, after interface{}, at time.Time) error {
	if entry == nil {
		return nil
	}
	var err error
	if before != nil {
		if entry.Before, err = snapshot(before); err != nil {
			return err
		}
	}
	if after != nil {
		if entry.After, err = snapshot(after); err != nil {
			return err
		}
	}
	return insertAudit(ctx, ext, entry, at)
}

func sameClassification(a, b *models.Classification) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
