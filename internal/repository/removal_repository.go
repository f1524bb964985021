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

// RemovalRepository reads officer removal records.
type RemovalRepository struct {
	db *sqlx.DB
}

// NewRemovalRepository constructs the repository.
func NewRemovalRepository(db *sqlx.DB) *RemovalRepository {
	return &RemovalRepository{db: db}
}

// List returns removals newest first, scoped through the removed officer's congregation.
func (r *RemovalRepository) List(ctx context.Context, filter models.RemovalFilter) ([]models.RemovalRecord, int, error) {
	var conditions []string
	var args []interface{}
	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("o.district = $%d", len(args)))
	}
	if filter.Congregation != "" {
		args = append(args, filter.Congregation)
		conditions = append(conditions, fmt.Sprintf("o.congregation = $%d", len(args)))
	}
	if filter.Code != "" {
		args = append(args, string(filter.Code))
		conditions = append(conditions, fmt.Sprintf("r.removal_code = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf(`SELECT r.id, r.officer_id, r.department_id, r.department, r.duty, r.removal_code, r.reason,
	r.removal_date, r.processed_by, r.created_at, %s
FROM officer_removals r
JOIN officers o ON o.id = r.officer_id%s
ORDER BY r.removal_date DESC, r.created_at DESC LIMIT %d OFFSET %d`, identityColumns, where, pageSize, offset)

	var rows []models.RemovalRecord
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list removals: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM officer_removals r JOIN officers o ON o.id = r.officer_id" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count removals: %w", err)
	}
	return rows, total, nil
}

func insertRemoval(ctx context.Context, ext sqlx.ExtContext, removal *models.Removal, at time.Time) error {
	if removal.ID == "" {
		removal.ID = uuid.NewString()
	}
	removal.CreatedAt = at
	const query = `INSERT INTO officer_removals (id, officer_id, department_id, department, duty, removal_code, reason, removal_date, processed_by, created_at)
VALUES (:id, :officer_id, :department_id, :department, :duty, :removal_code, :reason, :removal_date, :processed_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, removal); err != nil {
		return fmt.Errorf("insert removal: %w", err)
	}
	return nil
}
