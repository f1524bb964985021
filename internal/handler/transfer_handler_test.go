package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type transferServiceMock struct {
	outReq  dto.TransferOutRequest
	removed dto.RemovalRequest
	err     error
}

func (m *transferServiceMock) TransferIn(ctx context.Context, actor *models.JWTClaims, req dto.TransferInRequest) (*dto.TransferInResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TransferInResponse{OfficerID: "off-2", RefNo: "OFC-BBBB", TransferID: "tr-1", Week: 10, Year: 2024}, nil
}

func (m *transferServiceMock) TransferOut(ctx context.Context, actor *models.JWTClaims, req dto.TransferOutRequest) (*dto.TransferOutResponse, error) {
	m.outReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TransferOutResponse{OfficerID: req.OfficerID, TransferID: "tr-2", Week: 10, Year: 2024, Department: "Choir, Ushers"}, nil
}

func (m *transferServiceMock) RemoveOfficer(ctx context.Context, actor *models.JWTClaims, req dto.RemovalRequest) (*dto.RemovalResponse, error) {
	m.removed = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RemovalResponse{OfficerID: req.OfficerID, RemovalID: "rm-1", Department: "Choir"}, nil
}

type ledgerServiceMock struct {
	transfers []dto.TransferView
	query     dto.TransferListQuery
	view      string
	scope     dto.ScopeRequest
	err       error
}

func (m *ledgerServiceMock) ListTransfers(ctx context.Context, actor *models.JWTClaims, query dto.TransferListQuery) ([]dto.TransferView, *models.Pagination, error) {
	m.query = query
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.transfers, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.transfers)}, nil
}

func (m *ledgerServiceMock) ListRemovals(ctx context.Context, actor *models.JWTClaims, query dto.RemovalListQuery) ([]dto.RemovalView, *models.Pagination, error) {
	return nil, nil, m.err
}

func (m *ledgerServiceMock) ClearView(ctx context.Context, actor *models.JWTClaims, view string, req dto.ScopeRequest) (*models.ViewMarker, error) {
	m.view, m.scope = view, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ViewMarker{ID: "vm-1", ViewName: view, District: req.District, Congregation: req.Congregation, ClearedAt: time.Now().UTC(), ClearedBy: actor.UserID}, nil
}

func TestTransferHandlerTransferOut(t *testing.T) {
	svc := &transferServiceMock{}
	h := NewTransferHandler(svc, &ledgerServiceMock{})
	c, w := newHandlerContext(t, http.MethodPost, "/transfers/out", dto.TransferOutRequest{
		OfficerID: "off-1", ToDistrict: "D-202", ToCongregation: "Elsewhere", TransferDate: "2024-03-05",
	}, congregationClaims())

	h.TransferOut(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Elsewhere", svc.outReq.ToCongregation)
	var res dto.TransferOutResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, "Choir, Ushers", res.Department)
	assert.Equal(t, 10, res.Week)
}

func TestTransferHandlerTransferOutInactiveOfficer(t *testing.T) {
	svc := &transferServiceMock{err: appErrors.Clone(appErrors.ErrConsistencyViolation, "officer is not active")}
	h := NewTransferHandler(svc, &ledgerServiceMock{})
	c, w := newHandlerContext(t, http.MethodPost, "/transfers/out", dto.TransferOutRequest{OfficerID: "off-1"}, congregationClaims())

	h.TransferOut(c)

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "officer is not active", env.Error.Message)
}

func TestTransferHandlerRemove(t *testing.T) {
	svc := &transferServiceMock{}
	h := NewTransferHandler(svc, &ledgerServiceMock{})
	c, w := newHandlerContext(t, http.MethodPost, "/removals", dto.RemovalRequest{
		OfficerID: "off-1", ReasonCode: models.RemovalCodeDeceased, RemovalDate: "2024-03-05",
	}, congregationClaims())

	h.Remove(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RemovalCodeDeceased, svc.removed.ReasonCode)
}

func TestTransferHandlerListTransfersBindsQuery(t *testing.T) {
	ledger := &ledgerServiceMock{transfers: []dto.TransferView{{RefNo: "OFC-AAAA", OfficerName: "Juan Dela Cruz"}}}
	h := NewTransferHandler(&transferServiceMock{}, ledger)
	c, w := newHandlerContext(t, http.MethodGet, "/transfers?direction=out&congregation=C-01&week=10&year=2024&include_cleared=true", nil, congregationClaims())

	h.ListTransfers(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "out", ledger.query.Direction)
	assert.Equal(t, 10, ledger.query.Week)
	assert.Equal(t, 2024, ledger.query.Year)
	assert.True(t, ledger.query.IncludeCleared)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestTransferHandlerListTransfersRejectsBadWeek(t *testing.T) {
	ledger := &ledgerServiceMock{}
	h := NewTransferHandler(&transferServiceMock{}, ledger)
	c, w := newHandlerContext(t, http.MethodGet, "/transfers?week=ten", nil, congregationClaims())

	h.ListTransfers(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ledger.query.Direction)
}

func TestTransferHandlerClearView(t *testing.T) {
	ledger := &ledgerServiceMock{}
	h := NewTransferHandler(&transferServiceMock{}, ledger)
	c, w := newHandlerContext(t, http.MethodPost, "/views/transfers_out/clear", dto.ScopeRequest{District: "D-101", Congregation: "C-01"}, congregationClaims())
	c.Params = gin.Params{{Key: "view", Value: "transfers_out"}}

	h.ClearView(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "transfers_out", ledger.view)
	var marker models.ViewMarker
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &marker))
	assert.Equal(t, "admin-1", marker.ClearedBy)
}
