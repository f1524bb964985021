package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// LifecycleRepository owns the multi-table officer lifecycle writes. Every method runs as one
// transaction covering the officer rows, the ledger row, the headcount counter and the audit
// entry, so either all of them are committed or none is.
type LifecycleRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewLifecycleRepository constructs the repository.
func NewLifecycleRepository(db *sqlx.DB) *LifecycleRepository {
	return &LifecycleRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CreateParams carries a fully prepared officer (ciphertext already applied) and its first
// department assignment. Transfer is set for transfer-in and nil for direct intake.
type CreateParams struct {
	Officer    *models.Officer
	Assignment *models.DepartmentAssignment
	Transfer   *models.Transfer
	Audit      *models.AuditEntry
}

// CreateOfficer inserts the officer, its assignment, the optional transfer-in row, bumps the
// destination headcount and appends the audit entry.
func (r *LifecycleRepository) CreateOfficer(ctx context.Context, params CreateParams) error {
	if params.Officer == nil || params.Assignment == nil {
		return fmt.Errorf("create officer: officer and initial assignment are required")
	}
	now := r.now()
	officer := params.Officer
	officer.IsActive = true
	officer.Status = models.OfficerStatusActive
	officer.DeactivatedAt = nil
	officer.CreatedAt = now
	officer.UpdatedAt = now

	return runInTx(ctx, r.db, "officer create", func(tx *sqlx.Tx) error {
		if err := insertOfficer(ctx, tx, officer); err != nil {
			return err
		}
		params.Assignment.OfficerID = officer.ID
		if err := insertAssignment(ctx, tx, params.Assignment, now); err != nil {
			return err
		}
		if params.Transfer != nil {
			params.Transfer.OfficerID = officer.ID
			params.Transfer.Direction = models.TransferDirectionIn
			params.Transfer.Department = params.Assignment.Department
			params.Transfer.Duty = params.Assignment.Duty
			params.Transfer.OathDate = params.Assignment.OathDate
			if err := insertTransfer(ctx, tx, params.Transfer, now); err != nil {
				return err
			}
		}
		if err := incrementHeadcount(ctx, tx, officer.Scope(), now); err != nil {
			return err
		}
		after := struct {
			Officer    *models.Officer              `json:"officer"`
			Assignment *models.DepartmentAssignment `json:"assignment"`
			Transfer   *models.Transfer             `json:"transfer,omitempty"`
		}{officer, params.Assignment, params.Transfer}
		return auditRows(ctx, tx, params.Audit, nil, after, now)
	})
}

// DeactivateParams describes a transfer-out or a removal. Exactly one of Transfer and Removal
// is set; the repository fills their department snapshot from the locked rows.
// When RefreshAuto is set, Auto replaces the stored automatic label as of the deactivation.
type DeactivateParams struct {
	OfficerID     string
	ExpectedScope models.Scope
	Transfer      *models.Transfer
	Removal       *models.Removal
	RefreshAuto   bool
	Auto          *models.Classification
	ChangedBy     string
	Audit         *models.AuditEntry
}

// Deactivate re-reads the officer under lock, rejects inactive officers, refreshes the automatic
// label, deactivates the officer and all active assignments, writes the ledger row, decrements the headcount with a floor of
// zero and appends the audit entry. It returns the department snapshot taken before the write.
func (r *LifecycleRepository) Deactivate(ctx context.Context, params DeactivateParams) (*models.DepartmentSnapshot, error) {
	if (params.Transfer == nil) == (params.Removal == nil) {
		return nil, fmt.Errorf("deactivate officer: exactly one of transfer or removal is required")
	}
	status := models.OfficerStatusRemoved
	if params.Transfer != nil {
		status = models.OfficerStatusTransferredOut
	}

	now := r.now()
	var snap *models.DepartmentSnapshot
	err := runInTx(ctx, r.db, "officer deactivate", func(tx *sqlx.Tx) error {
		officer, err := lockOfficer(ctx, tx, params.OfficerID)
		if err != nil {
			return err
		}
		if !officer.IsActive {
			return ErrOfficerInactive
		}
		if err := checkScope(officer, params.ExpectedScope); err != nil {
			return err
		}

		assignments, err := activeAssignments(ctx, tx, officer.ID)
		if err != nil {
			return err
		}
		snap = &models.DepartmentSnapshot{Assignments: assignments}

		after := *officer
		if params.RefreshAuto && !sameClassification(officer.ClassificationAuto, params.Auto) {
			if err := writeAuto(ctx, tx, officer, params.Auto, params.ChangedBy, now); err != nil {
				return err
			}
			after.ClassificationAuto = params.Auto
		}
		if err := deactivateOfficer(ctx, tx, officer.ID, status, now); err != nil {
			return err
		}
		if err := deactivateAssignments(ctx, tx, officer.ID, now); err != nil {
			return err
		}

		if params.Transfer != nil {
			t := params.Transfer
			t.OfficerID = officer.ID
			t.Direction = models.TransferDirectionOut
			t.FromDistrict = officer.District
			t.FromCongregation = officer.Congregation
			t.Department = snap.Departments()
			t.Duty = snap.Duties()
			if primary := snap.Primary(); primary != nil {
				t.OathDate = primary.OathDate
			}
			if err := insertTransfer(ctx, tx, t, now); err != nil {
				return err
			}
		} else {
			rm := params.Removal
			rm.OfficerID = officer.ID
			rm.Department = snap.Departments()
			rm.Duty = snap.Duties()
			if primary := snap.Primary(); primary != nil {
				id := primary.ID
				rm.DepartmentID = &id
			}
			if err := insertRemoval(ctx, tx, rm, now); err != nil {
				return err
			}
		}

		if err := decrementHeadcount(ctx, tx, officer.Scope(), now); err != nil {
			return err
		}

		after.IsActive = false
		after.Status = status
		after.DeactivatedAt = &now
		after.UpdatedAt = now
		return auditRows(ctx, tx, params.Audit, officer, &after, now)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// MergeParams names the officer row to keep and the duplicate to fold into it.
type MergeParams struct {
	KeepID string
	DropID string
	Audit  *models.AuditEntry
}

// MergeResult reports what a merge moved.
type MergeResult struct {
	Kept             *models.Officer `json:"kept"`
	DroppedID        string          `json:"dropped_id"`
	DroppedWasActive bool            `json:"dropped_was_active"`
}

// Merge folds the duplicate officer's history into the kept row and deletes the duplicate.
// Both rows must belong to the same district because their ciphertexts share a district key.
func (r *LifecycleRepository) Merge(ctx context.Context, params MergeParams) (*MergeResult, error) {
	if params.KeepID == "" || params.DropID == "" || params.KeepID == params.DropID {
		return nil, fmt.Errorf("merge officers: two distinct officer ids are required")
	}
	now := r.now()
	var result *MergeResult
	err := runInTx(ctx, r.db, "officer merge", func(tx *sqlx.Tx) error {
		// Lock in id order so two merges over the same pair cannot deadlock.
		firstID, secondID := params.KeepID, params.DropID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := lockOfficer(ctx, tx, firstID)
		if err != nil {
			return err
		}
		second, err := lockOfficer(ctx, tx, secondID)
		if err != nil {
			return err
		}
		keep, drop := first, second
		if keep.ID != params.KeepID {
			keep, drop = second, first
		}
		if !strings.EqualFold(keep.District, drop.District) {
			return ErrScopeMismatch
		}
		keepBefore := *keep

		for _, table := range []string{"department_assignments", "transfers", "officer_removals", "classification_changes"} {
			query := fmt.Sprintf("UPDATE %s SET officer_id = $1 WHERE officer_id = $2", table)
			if _, err := tx.ExecContext(ctx, query, keep.ID, drop.ID); err != nil {
				return fmt.Errorf("repoint %s: %w", table, err)
			}
		}
		if !keep.IsActive {
			if err := deactivateAssignments(ctx, tx, keep.ID, now); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM officers WHERE id = $1`, drop.ID); err != nil {
			return fmt.Errorf("delete merged officer: %w", err)
		}
		if drop.IsActive {
			if err := decrementHeadcount(ctx, tx, drop.Scope(), now); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE officers SET updated_at = $1 WHERE id = $2`, now, keep.ID); err != nil {
			return fmt.Errorf("touch kept officer: %w", err)
		}
		keep.UpdatedAt = now

		before := map[string]*models.Officer{"keep": &keepBefore, "drop": drop}
		if err := auditRows(ctx, tx, params.Audit, before, keep, now); err != nil {
			return err
		}
		result = &MergeResult{Kept: keep, DroppedID: drop.ID, DroppedWasActive: drop.IsActive}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
