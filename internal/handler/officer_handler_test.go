package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/middleware"
	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

func newHandlerContext(t *testing.T, method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func congregationClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleCongregationAdmin, District: "D-101", Congregation: "C-01"}
}

type officerServiceMock struct {
	view       *dto.OfficerView
	list       []dto.OfficerView
	pagination *models.Pagination
	err        error
	gotID      string
	gotRef     string
	gotQuery   dto.OfficerListQuery
	gotActor   *models.JWTClaims
	ended      []string
}

func (m *officerServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.OfficerView, error) {
	m.gotID, m.gotActor = id, actor
	return m.view, m.err
}

func (m *officerServiceMock) GetByRefNo(ctx context.Context, actor *models.JWTClaims, refNo string) (*dto.OfficerView, error) {
	m.gotRef = refNo
	return m.view, m.err
}

func (m *officerServiceMock) List(ctx context.Context, actor *models.JWTClaims, query dto.OfficerListQuery) ([]dto.OfficerView, *models.Pagination, error) {
	m.gotQuery = query
	return m.list, m.pagination, m.err
}

func (m *officerServiceMock) Lookup(ctx context.Context, actor *models.JWTClaims, query dto.OfficerLookupQuery) ([]dto.OfficerView, error) {
	return m.list, m.err
}

func (m *officerServiceMock) UpdateBirthdate(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateBirthdateRequest) (*dto.OfficerView, error) {
	m.gotID = id
	return m.view, m.err
}

func (m *officerServiceMock) AddAssignment(ctx context.Context, actor *models.JWTClaims, id string, req dto.DepartmentInput) (*models.DepartmentAssignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.DepartmentAssignment{ID: "asg-1", OfficerID: id, Department: req.Department, IsActive: true}, nil
}

func (m *officerServiceMock) EndAssignment(ctx context.Context, actor *models.JWTClaims, id, assignmentID string) error {
	m.ended = append(m.ended, id+"/"+assignmentID)
	return m.err
}

type intakeServiceMock struct {
	got dto.IntakeRequest
	err error
}

func (m *intakeServiceMock) Intake(ctx context.Context, actor *models.JWTClaims, req dto.IntakeRequest) (*dto.TransferInResponse, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	count := 4
	return &dto.TransferInResponse{OfficerID: "off-1", RefNo: "OFC-0123456789AB", Headcount: &count}, nil
}

func (m *intakeServiceMock) Merge(ctx context.Context, actor *models.JWTClaims, req dto.MergeOfficersRequest) (*dto.MergeOfficersResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.MergeOfficersResponse{Officer: &dto.OfficerView{ID: req.KeepID}, DroppedID: req.DropID}, nil
}

func TestOfficerHandlerIntakeCreated(t *testing.T) {
	intake := &intakeServiceMock{}
	h := NewOfficerHandler(&officerServiceMock{}, intake)
	payload := dto.IntakeRequest{
		Officer:      dto.OfficerFields{LastName: "Dela Cruz", FirstName: "Juan"},
		District:     "D-101",
		Congregation: "C-01",
		Department:   dto.DepartmentInput{Department: "Choir"},
	}
	c, w := newHandlerContext(t, http.MethodPost, "/officers", payload, congregationClaims())

	h.Intake(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Juan", intake.got.Officer.FirstName)
	var res dto.TransferInResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, "OFC-0123456789AB", res.RefNo)
	require.NotNil(t, res.Headcount)
	assert.Equal(t, 4, *res.Headcount)
}

func TestOfficerHandlerIntakeInvalidBody(t *testing.T) {
	intake := &intakeServiceMock{}
	h := NewOfficerHandler(&officerServiceMock{}, intake)
	c, w := newHandlerContext(t, http.MethodPost, "/officers", "{not json", congregationClaims())

	h.Intake(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Empty(t, intake.got.District)
}

func TestOfficerHandlerGetMapsServiceErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"not found":  {appErrors.ErrNotFound, http.StatusNotFound},
		"forbidden":  {appErrors.ErrForbidden, http.StatusForbidden},
		"decryption": {appErrors.Clone(appErrors.ErrDecryptionFailure, "birthdate unavailable"), http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &officerServiceMock{err: tc.err}
			h := NewOfficerHandler(svc, &intakeServiceMock{})
			c, w := newHandlerContext(t, http.MethodGet, "/officers/off-9", nil, congregationClaims())
			c.Params = gin.Params{{Key: "id", Value: "off-9"}}

			h.Get(c)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "off-9", svc.gotID)
		})
	}
}

func TestOfficerHandlerListPassesQueryAndPagination(t *testing.T) {
	svc := &officerServiceMock{
		list:       []dto.OfficerView{{ID: "off-1", FullName: "Juan Dela Cruz"}},
		pagination: &models.Pagination{Page: 2, PageSize: 1, TotalCount: 3},
	}
	h := NewOfficerHandler(svc, &intakeServiceMock{})
	c, w := newHandlerContext(t, http.MethodGet, "/officers?congregation=C-01&status=ACTIVE&page=2&pageSize=1", nil, congregationClaims())

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "C-01", svc.gotQuery.Congregation)
	assert.Equal(t, "ACTIVE", svc.gotQuery.Status)
	assert.Equal(t, 2, svc.gotQuery.Page)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalCount)
}

func TestOfficerHandlerGetByRefNo(t *testing.T) {
	svc := &officerServiceMock{view: &dto.OfficerView{ID: "off-1", RefNo: "OFC-AAAA"}}
	h := NewOfficerHandler(svc, &intakeServiceMock{})
	c, w := newHandlerContext(t, http.MethodGet, "/officers/ref/OFC-AAAA", nil, congregationClaims())
	c.Params = gin.Params{{Key: "refNo", Value: "OFC-AAAA"}}

	h.GetByRefNo(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OFC-AAAA", svc.gotRef)
}

func TestOfficerHandlerEndAssignment(t *testing.T) {
	svc := &officerServiceMock{}
	h := NewOfficerHandler(svc, &intakeServiceMock{})
	c, w := newHandlerContext(t, http.MethodDelete, "/officers/off-1/assignments/asg-1", nil, congregationClaims())
	c.Params = gin.Params{{Key: "id", Value: "off-1"}, {Key: "assignmentId", Value: "asg-1"}}

	h.EndAssignment(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Empty(t, w.Body.Bytes())
	assert.Equal(t, []string{"off-1/asg-1"}, svc.ended)
}

func TestOfficerHandlerMergeConflict(t *testing.T) {
	h := NewOfficerHandler(&officerServiceMock{}, &intakeServiceMock{err: appErrors.ErrConsistencyViolation})
	c, w := newHandlerContext(t, http.MethodPost, "/officers/merge", dto.MergeOfficersRequest{KeepID: "a", DropID: "b"}, congregationClaims())

	h.Merge(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
