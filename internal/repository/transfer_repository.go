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

const identityColumns = `o.ref_no, o.district AS officer_district, o.last_name, o.first_name, o.middle_name, o.suffix`

// TransferRepository reads the append-only transfer ledger. Rows are inserted by
// LifecycleRepository and never updated or deleted.
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository constructs the repository.
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// List returns ledger rows newest first. District and congregation match the local side of the
// move: the destination of an inbound row and the origin of an outbound one.
func (r *TransferRepository) List(ctx context.Context, filter models.TransferFilter) ([]models.TransferRecord, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Direction != "" {
		args = append(args, string(filter.Direction))
		conditions = append(conditions, fmt.Sprintf("t.direction = $%d", len(args)))
	}
	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("((t.direction = 'in' AND t.to_district = $%[1]d) OR (t.direction = 'out' AND t.from_district = $%[1]d))", len(args)))
	}
	if filter.Congregation != "" {
		args = append(args, filter.Congregation)
		conditions = append(conditions, fmt.Sprintf("((t.direction = 'in' AND t.to_congregation = $%[1]d) OR (t.direction = 'out' AND t.from_congregation = $%[1]d))", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("t.year = $%d", len(args)))
	}
	if filter.Week > 0 {
		args = append(args, filter.Week)
		conditions = append(conditions, fmt.Sprintf("t.week = $%d", len(args)))
	}
	if filter.ClearedBefore != nil {
		args = append(args, *filter.ClearedBefore)
		conditions = append(conditions, fmt.Sprintf("t.created_at > $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf(`SELECT t.id, t.officer_id, t.direction, t.from_district, t.from_congregation, t.to_district, t.to_congregation,
	t.department, t.duty, t.oath_date, t.transfer_date, t.week, t.year, t.processed_by, t.notes, t.created_at, %s
FROM transfers t
JOIN officers o ON o.id = t.officer_id%s
ORDER BY t.transfer_date DESC, t.created_at DESC LIMIT %d OFFSET %d`, identityColumns, where, pageSize, offset)

	var rows []models.TransferRecord
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM transfers t"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}
	return rows, total, nil
}

// ListByOfficer returns an officer's ledger history in processing order.
func (r *TransferRepository) ListByOfficer(ctx context.Context, officerID string) ([]models.Transfer, error) {
	const query = `SELECT id, officer_id, direction, from_district, from_congregation, to_district, to_congregation,
	department, duty, oath_date, transfer_date, week, year, processed_by, notes, created_at
FROM transfers WHERE officer_id = $1 ORDER BY created_at ASC`
	var rows []models.Transfer
	if err := r.db.SelectContext(ctx, &rows, query, officerID); err != nil {
		return nil, fmt.Errorf("list officer transfers: %w", err)
	}
	return rows, nil
}

func insertTransfer(ctx context.Context, ext sqlx.ExtContext, transfer *models.Transfer, at time.Time) error {
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	if transfer.Week == 0 || transfer.Year == 0 {
		transfer.Week, transfer.Year = models.WeekBucket(transfer.TransferDate)
	}
	transfer.CreatedAt = at
	const query = `INSERT INTO transfers (id, officer_id, direction, from_district, from_congregation, to_district, to_congregation,
	department, duty, oath_date, transfer_date, week, year, processed_by, notes, created_at)
VALUES (:id, :officer_id, :direction, :from_district, :from_congregation, :to_district, :to_congregation,
	:department, :duty, :oath_date, :transfer_date, :week, :year, :processed_by, :notes, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, transfer); err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}
