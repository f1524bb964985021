package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/config"
	"github.com/noah-isme/officer-registry-api/pkg/database"
)

// newSQLiteDB opens an isolated in-memory database with the embedded schema applied.
func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewSQLite(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func fixtureOfficer(scope models.Scope, lastName string) *models.Officer {
	return &models.Officer{
		RefNo:        "OFC-" + uuid.NewString()[:12],
		District:     scope.District,
		Congregation: scope.Congregation,
		LastName:     "v1.enc-" + lastName,
		FirstName:    "v1.enc-first",
	}
}

func fixtureAudit(action string) *models.AuditEntry {
	return &models.AuditEntry{Actor: "user-1", Action: action, TableName: "officers", RecordID: "pending"}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func intake(t *testing.T, repo *LifecycleRepository, scope models.Scope, lastName string, department string) *models.Officer {
	t.Helper()
	officer := fixtureOfficer(scope, lastName)
	oath := day(2020, time.January, 5)
	err := repo.CreateOfficer(context.Background(), CreateParams{
		Officer:    officer,
		Assignment: &models.DepartmentAssignment{Department: department, OathDate: &oath},
		Audit:      fixtureAudit(models.AuditActionOfficerIntake),
	})
	require.NoError(t, err)
	return officer
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var total int
	require.NoError(t, db.Get(&total, query, args...))
	return total
}
