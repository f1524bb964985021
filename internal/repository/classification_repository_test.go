package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

func label(c models.Classification) *models.Classification { return &c }

func TestClassificationSetManualAndClear(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	lifecycle := NewLifecycleRepository(db)
	repo := NewClassificationRepository(db)
	scope := models.Scope{District: "D1", Congregation: "A"}

	officer := fixtureOfficer(scope, "young")
	officer.ClassificationAuto = label(models.ClassificationYouth)
	require.NoError(t, lifecycle.CreateOfficer(ctx, CreateParams{Officer: officer, Assignment: &models.DepartmentAssignment{Department: "Usher"}}))

	updated, err := repo.SetManual(ctx, ManualParams{OfficerID: officer.ID, Manual: label(models.ClassificationAdult), ExpectedScope: scope,
		ChangedBy: "user-1", Audit: fixtureAudit(models.AuditActionClassificationManual)})
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationAdult, *updated.EffectiveClassification())

	cleared, err := repo.SetManual(ctx, ManualParams{OfficerID: officer.ID, ExpectedScope: scope, ChangedBy: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationYouth, *cleared.EffectiveClassification())

	stored, err := NewOfficerRepository(db).FindByID(ctx, officer.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ClassificationManual)
	assert.Equal(t, models.ClassificationYouth, *stored.EffectiveClassification())

	promoted, total, err := repo.ListChanges(ctx, models.ClassificationChangeFilter{District: "D1", Congregation: "A", Source: models.ChangeSourceManual})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, promoted, 1)
	assert.Equal(t, models.ClassificationYouth, *promoted[0].FromClassification)
	assert.Equal(t, models.ClassificationAdult, *promoted[0].ToClassification)

	_, total, err = repo.ListChanges(ctx, models.ClassificationChangeFilter{Source: models.ChangeSourceManualCleared})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestClassificationApplyAutoOnlyWritesChanges(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewClassificationRepository(db)
	officer := intake(t, NewLifecycleRepository(db), models.Scope{District: "D1", Congregation: "A"}, "auto", "Usher")

	changed, err := repo.ApplyAuto(ctx, officer.ID, label(models.ClassificationChild), "system")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.ApplyAuto(ctx, officer.ID, label(models.ClassificationChild), "system")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM classification_changes WHERE source = $1", string(models.ChangeSourceAuto)))
}

func TestClassificationLatestBaselineWins(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewClassificationRepository(db)
	scope := models.Scope{District: "D1", Congregation: "A"}

	none, err := repo.LatestBaseline(ctx, scope, models.ClassificationYouth, models.PeriodWeek)
	require.NoError(t, err)
	assert.Nil(t, none)

	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)
	require.NoError(t, repo.InsertBaselines(ctx, []models.Baseline{
		{District: "D1", Congregation: "A", Classification: models.ClassificationYouth, Period: models.PeriodWeek, ResetAt: first, ResetBy: "user-1"},
		{District: "D1", Congregation: "A", Classification: models.ClassificationYouth, Period: models.PeriodWeek, ResetAt: second, ResetBy: "user-1"},
		{District: "D1", Congregation: "A", Classification: models.ClassificationYouth, Period: models.PeriodMonth, ResetAt: first, ResetBy: "user-1"},
	}, fixtureAudit(models.AuditActionBaselineReset)))

	latest, err := repo.LatestBaseline(ctx, scope, models.ClassificationYouth, models.PeriodWeek)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.ResetAt.Equal(second))

	other, err := repo.LatestBaseline(ctx, scope, models.ClassificationChild, models.PeriodWeek)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestClassificationCountsUseEffectiveLabel(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	lifecycle := NewLifecycleRepository(db)
	repo := NewClassificationRepository(db)
	scope := models.Scope{District: "D1", Congregation: "A"}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	create := func(at time.Time, auto, manual *models.Classification) *models.Officer {
		lifecycle.now = func() time.Time { return at }
		officer := fixtureOfficer(scope, "count")
		officer.ClassificationAuto = auto
		officer.ClassificationManual = manual
		require.NoError(t, lifecycle.CreateOfficer(ctx, CreateParams{Officer: officer, Assignment: &models.DepartmentAssignment{Department: "Usher"}}))
		return officer
	}

	create(base.Add(-24*time.Hour), label(models.ClassificationYouth), nil)
	create(base.Add(time.Hour), label(models.ClassificationYouth), nil)
	create(base.Add(2*time.Hour), label(models.ClassificationChild), label(models.ClassificationYouth))
	leaving := create(base.Add(3*time.Hour), label(models.ClassificationYouth), nil)

	lifecycle.now = func() time.Time { return base.Add(5 * time.Hour) }
	_, err := lifecycle.Deactivate(ctx, DeactivateParams{OfficerID: leaving.ID,
		Transfer: &models.Transfer{ToDistrict: "D2", ToCongregation: "B", TransferDate: base, ProcessedBy: "user-1"}})
	require.NoError(t, err)

	added, err := repo.CountAdded(ctx, scope, models.ClassificationYouth, base)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	removed, err := repo.CountRemoved(ctx, scope, models.ClassificationYouth, base)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	child, err := repo.CountAdded(ctx, scope, models.ClassificationChild, base)
	require.NoError(t, err)
	assert.Equal(t, 0, child)
}

func TestUpdateBirthdateLogsAutoChange(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	scope := models.Scope{District: "D1", Congregation: "A"}
	officer := intake(t, NewLifecycleRepository(db), scope, "born", "Usher")
	repo := NewOfficerRepository(db)

	cipherText := "v1.birthdate"
	updated, err := repo.UpdateBirthdate(ctx, BirthdateParams{OfficerID: officer.ID, Birthdate: &cipherText,
		Auto: label(models.ClassificationChild), ExpectedScope: scope, ChangedBy: "user-1",
		Audit: fixtureAudit(models.AuditActionBirthdateUpdate)})
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationChild, *updated.ClassificationAuto)
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM classification_changes WHERE officer_id = $1", officer.ID))

	_, err = repo.UpdateBirthdate(ctx, BirthdateParams{OfficerID: officer.ID, Birthdate: &cipherText,
		Auto: label(models.ClassificationChild), ExpectedScope: scope, ChangedBy: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM classification_changes WHERE officer_id = $1", officer.ID))
}

func TestEndAssignmentKeepsHistory(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	scope := models.Scope{District: "D1", Congregation: "A"}
	officer := intake(t, NewLifecycleRepository(db), scope, "duty", "Usher")
	repo := NewOfficerRepository(db)

	active, err := repo.ListAssignments(ctx, officer.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, repo.EndAssignment(ctx, officer.ID, active[0].ID, scope, fixtureAudit(models.AuditActionAssignmentEnd)))
	assert.ErrorIs(t, repo.EndAssignment(ctx, officer.ID, active[0].ID, scope, nil), ErrAssignmentNotFound)

	history, err := repo.ListAssignments(ctx, officer.ID, false)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsActive)
	assert.NotNil(t, history[0].RemovedAt)
}
