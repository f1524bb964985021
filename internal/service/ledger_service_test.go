package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/cipher"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type transferListerStub struct {
	rows   []models.TransferRecord
	filter models.TransferFilter
}

func (s *transferListerStub) List(_ context.Context, filter models.TransferFilter) ([]models.TransferRecord, int, error) {
	s.filter = filter
	return s.rows, len(s.rows), nil
}

type removalListerStub struct {
	filter models.RemovalFilter
	err    error
}

func (s *removalListerStub) List(_ context.Context, filter models.RemovalFilter) ([]models.RemovalRecord, int, error) {
	s.filter = filter
	return nil, 0, s.err
}

type viewMarkerStoreStub struct {
	markerStub
	created []*models.ViewMarker
	audits  []*models.AuditEntry
}

func (s *viewMarkerStoreStub) Create(_ context.Context, marker *models.ViewMarker, audit *models.AuditEntry) error {
	marker.ClearedAt = time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	s.created = append(s.created, marker)
	s.audits = append(s.audits, audit)
	return nil
}

func newLedgerFixture(t *testing.T) (*LedgerService, *transferListerStub, *removalListerStub, *viewMarkerStoreStub, *cipher.DistrictCipher) {
	t.Helper()
	c, err := cipher.New(testMasterKey)
	require.NoError(t, err)
	transfers := &transferListerStub{}
	removals := &removalListerStub{}
	markers := &viewMarkerStoreStub{}
	return NewLedgerService(transfers, removals, markers, c, nil, nil, nil, nil), transfers, removals, markers, c
}

func TestListTransfersDecryptsNames(t *testing.T) {
	svc, transfers, _, _, c := newLedgerFixture(t)
	officer := sealedOfficer(t, c, "o-1", "D-101", "C", "Juan", "Dela Cruz")
	transfers.rows = []models.TransferRecord{{
		Transfer: models.Transfer{ID: "t-1", OfficerID: officer.ID, Direction: models.TransferDirectionIn},
		OfficerIdentity: models.OfficerIdentity{
			RefNo: officer.RefNo, OfficerDistrict: officer.District, LastName: officer.LastName, FirstName: "v1.broken",
		},
	}}

	views, page, err := svc.ListTransfers(context.Background(), congregationAdmin(), dto.TransferListQuery{Direction: "in"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, UnavailablePlaceholder+" Dela Cruz", views[0].OfficerName)
	assert.Equal(t, []string{"first_name"}, views[0].UnavailableFields)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "D-101", transfers.filter.District)
	assert.Equal(t, "C", transfers.filter.Congregation)
	assert.Nil(t, transfers.filter.ClearedBefore)
}

func TestListTransfersOutHonoursClearMarker(t *testing.T) {
	svc, transfers, _, markers, _ := newLedgerFixture(t)
	cleared := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	markers.marker = &models.ViewMarker{ClearedAt: cleared}

	_, _, err := svc.ListTransfers(context.Background(), congregationAdmin(), dto.TransferListQuery{Direction: "out"})
	require.NoError(t, err)
	require.NotNil(t, transfers.filter.ClearedBefore)
	assert.Equal(t, cleared, *transfers.filter.ClearedBefore)

	_, _, err = svc.ListTransfers(context.Background(), congregationAdmin(), dto.TransferListQuery{Direction: "out", IncludeCleared: true})
	require.NoError(t, err)
	assert.Nil(t, transfers.filter.ClearedBefore)

	_, _, err = svc.ListTransfers(context.Background(), congregationAdmin(), dto.TransferListQuery{Direction: "in"})
	require.NoError(t, err)
	assert.Nil(t, transfers.filter.ClearedBefore)
}

func TestListTransfersOutsideScope(t *testing.T) {
	svc, _, _, _, _ := newLedgerFixture(t)
	_, _, err := svc.ListTransfers(context.Background(), congregationAdmin(), dto.TransferListQuery{District: "D-202"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestListRemovalsMapsStorageErrors(t *testing.T) {
	svc, _, removals, _, _ := newLedgerFixture(t)
	removals.err = errors.New("connection reset")

	_, _, err := svc.ListRemovals(context.Background(), congregationAdmin(), dto.RemovalListQuery{Code: "DECEASED"})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.Equal(t, models.RemovalCodeDeceased, removals.filter.Code)
}

func TestClearView(t *testing.T) {
	svc, _, _, markers, _ := newLedgerFixture(t)

	_, err := svc.ClearView(context.Background(), congregationAdmin(), "officers", dto.ScopeRequest{District: "D-101", Congregation: "C"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	marker, err := svc.ClearView(context.Background(), congregationAdmin(), models.ViewTransfersOut, dto.ScopeRequest{District: "d-101", Congregation: "C"})
	require.NoError(t, err)
	assert.Equal(t, "D-101", marker.District)
	assert.Equal(t, "admin-1", marker.ClearedBy)
	require.Len(t, markers.audits, 1)
	assert.Equal(t, models.AuditActionViewClear, markers.audits[0].Action)
	assert.Equal(t, "view_markers", markers.audits[0].TableName)
}

func TestAuditServiceRestrictedToSuperadmins(t *testing.T) {
	svc := NewAuditService(nil, nil)
	_, _, err := svc.List(context.Background(), congregationAdmin(), dto.AuditListQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
