package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type headcountReaderStub struct {
	rows []models.Headcount
}

func (s *headcountReaderStub) Get(_ context.Context, _ *models.JWTClaims, scope models.Scope) (*models.Headcount, error) {
	for _, row := range s.rows {
		if row.District == scope.District && row.Congregation == scope.Congregation {
			return &row, nil
		}
	}
	return &models.Headcount{District: scope.District, Congregation: scope.Congregation}, nil
}

func (s *headcountReaderStub) ListByDistrict(_ context.Context, actor *models.JWTClaims, district string) ([]models.Headcount, error) {
	if actor.Role == models.RoleViewer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "forbidden")
	}
	return s.rows, nil
}

type transferPagesStub struct {
	pages   [][]dto.TransferView
	total   int
	queries []dto.TransferListQuery
}

func (s *transferPagesStub) ListTransfers(_ context.Context, _ *models.JWTClaims, query dto.TransferListQuery) ([]dto.TransferView, *models.Pagination, error) {
	s.queries = append(s.queries, query)
	if query.Page > len(s.pages) {
		return nil, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: s.total}, nil
	}
	return s.pages[query.Page-1], &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: s.total}, nil
}

func districtAdmin() *models.JWTClaims {
	return &models.JWTClaims{UserID: "district-1", Role: models.RoleDistrictAdmin, District: "D-101"}
}

func newExportFixture() (*ExportService, *headcountReaderStub, *transferPagesStub) {
	headcount := &headcountReaderStub{rows: []models.Headcount{
		{District: "D-101", Congregation: "C", TotalCount: 42, LastUpdated: time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)},
		{District: "D-101", Congregation: "East", TotalCount: 7},
	}}
	ledger := &transferPagesStub{}
	svc := NewExportService(headcount, ledger, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC) }
	return svc, headcount, ledger
}

func TestExportHeadcountCSV(t *testing.T) {
	svc, _, _ := newExportFixture()

	doc, err := svc.Headcount(context.Background(), districtAdmin(), dto.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "headcount_D-101_20240305_093000.csv", doc.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.Equal(t, "District,Congregation,Active Officers,Last Updated\n"+
		"D-101,C,42,2024-03-05T08:00:00Z\n"+
		"D-101,East,7,\n", string(doc.Body))
}

func TestExportHeadcountSingleCongregationPDF(t *testing.T) {
	svc, _, _ := newExportFixture()

	doc, err := svc.Headcount(context.Background(), congregationAdmin(), dto.ExportQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))
	assert.Contains(t, doc.Filename, "_C_")
}

func TestExportHeadcountPropagatesAuthorization(t *testing.T) {
	svc, _, _ := newExportFixture()
	_, err := svc.Headcount(context.Background(), &models.JWTClaims{UserID: "v", Role: models.RoleViewer, District: "D-101"}, dto.ExportQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportTransfersFollowsPages(t *testing.T) {
	svc, _, ledger := newExportFixture()
	duty := "Lead"
	row := func(id string) dto.TransferView {
		return dto.TransferView{
			Transfer: models.Transfer{ID: id, Direction: models.TransferDirectionOut, FromDistrict: "D-101", FromCongregation: "C",
				ToDistrict: "D-202", ToCongregation: "North", Department: "Choir", Duty: &duty,
				TransferDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), Week: 9, Year: 2024},
			RefNo:       "OFC-" + id,
			OfficerName: "Juan Dela Cruz",
		}
	}
	ledger.pages = [][]dto.TransferView{{row("1"), row("2")}, {row("3")}}
	ledger.total = 3

	doc, err := svc.Transfers(context.Background(), congregationAdmin(), dto.ExportQuery{Format: "xlsx", Direction: "out"})
	require.NoError(t, err)
	assert.Len(t, ledger.queries, 2)
	assert.Equal(t, exportPageSize, ledger.queries[0].PageSize)
	assert.Equal(t, "out", ledger.queries[1].Direction)
	assert.Equal(t, ".xlsx", doc.Filename[len(doc.Filename)-5:])
	assert.NotEmpty(t, doc.Body)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newExportFixture()
	_, err := svc.Headcount(context.Background(), districtAdmin(), dto.ExportQuery{Format: "docx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
