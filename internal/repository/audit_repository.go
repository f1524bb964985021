package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// AuditRepository reads the append-only audit trail. Writes happen inside the mutation
// transactions through insertAudit.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `id, actor, action, table_name, record_id, before_data, after_data, created_at, client_meta`

// List returns audit entries newest first with the total matching count.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int, error) {
	var conditions []string
	var args []interface{}
	if filter.TableName != "" {
		args = append(args, filter.TableName)
		conditions = append(conditions, fmt.Sprintf("table_name = $%d", len(args)))
	}
	if filter.RecordID != "" {
		args = append(args, filter.RecordID)
		conditions = append(conditions, fmt.Sprintf("record_id = $%d", len(args)))
	}
	if filter.Actor != "" {
		args = append(args, filter.Actor)
		conditions = append(conditions, fmt.Sprintf("actor = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM audit_log%s ORDER BY created_at DESC LIMIT %d OFFSET %d", auditColumns, where, pageSize, offset)
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_log"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}
	return entries, total, nil
}

// Append writes a standalone audit entry for actions that mutate no registry rows, such as logins.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	return insertAudit(ctx, r.db, entry, time.Now().UTC())
}

// insertAudit appends entry using the caller's transaction.
func insertAudit(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditEntry, at time.Time) error {
	if entry == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = at

	const query = `INSERT INTO audit_log (id, actor, action, table_name, record_id, before_data, after_data, created_at, client_meta)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := ext.ExecContext(ctx, query,
		entry.ID, entry.Actor, entry.Action, entry.TableName, entry.RecordID,
		nullableJSON(entry.Before), nullableJSON(entry.After), entry.CreatedAt, nullableJSON(entry.ClientMeta),
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
