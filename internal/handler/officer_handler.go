package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/response"
)

type officerService interface {
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.OfficerView, error)
	GetByRefNo(ctx context.Context, actor *models.JWTClaims, refNo string) (*dto.OfficerView, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.OfficerListQuery) ([]dto.OfficerView, *models.Pagination, error)
	Lookup(ctx context.Context, actor *models.JWTClaims, query dto.OfficerLookupQuery) ([]dto.OfficerView, error)
	UpdateBirthdate(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateBirthdateRequest) (*dto.OfficerView, error)
	AddAssignment(ctx context.Context, actor *models.JWTClaims, id string, req dto.DepartmentInput) (*models.DepartmentAssignment, error)
	EndAssignment(ctx context.Context, actor *models.JWTClaims, id, assignmentID string) error
}

type intakeService interface {
	Intake(ctx context.Context, actor *models.JWTClaims, req dto.IntakeRequest) (*dto.TransferInResponse, error)
	Merge(ctx context.Context, actor *models.JWTClaims, req dto.MergeOfficersRequest) (*dto.MergeOfficersResponse, error)
}

// OfficerHandler exposes officer records. Mutations are not idempotent; a retried intake
// creates a second officer.
type OfficerHandler struct {
	officers  officerService
	lifecycle intakeService
}

// NewOfficerHandler constructs the handler.
func NewOfficerHandler(officers officerService, lifecycle intakeService) *OfficerHandler {
	return &OfficerHandler{officers: officers, lifecycle: lifecycle}
}

// Intake godoc
// @Summary Register a new officer
// @Description Creates an active officer in a congregation, increments its headcount and audits the change. Not idempotent.
// @Tags Officers
// @Accept json
// @Produce json
// @Param payload body dto.IntakeRequest true "Officer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /officers [post]
func (h *OfficerHandler) Intake(c *gin.Context) {
	var req dto.IntakeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lifecycle.Intake(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// List godoc
// @Summary List officers
// @Tags Officers
// @Produce json
// @Param district query string false "District code"
// @Param congregation query string false "Congregation code"
// @Param status query string false "ACTIVE, TRANSFERRED_OUT or REMOVED"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /officers [get]
func (h *OfficerHandler) List(c *gin.Context) {
	var query dto.OfficerListQuery
	if !bindQuery(c, &query) {
		return
	}
	items, pagination, err := h.officers.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get officer detail
// @Description Decrypted officer with assignments and transfer history. Undecryptable fields are masked and listed in unavailable_fields.
// @Tags Officers
// @Produce json
// @Param id path string true "Officer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /officers/{id} [get]
func (h *OfficerHandler) Get(c *gin.Context) {
	view, err := h.officers.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// GetByRefNo godoc
// @Summary Get officer by reference number
// @Tags Officers
// @Produce json
// @Param refNo path string true "Reference number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /officers/ref/{refNo} [get]
func (h *OfficerHandler) GetByRefNo(c *gin.Context) {
	view, err := h.officers.GetByRefNo(c.Request.Context(), claimsFromContext(c), c.Param("refNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Lookup godoc
// @Summary Exact-match lookup by registry or control number
// @Tags Officers
// @Produce json
// @Param district query string true "District code"
// @Param registryNumber query string false "Registry number"
// @Param controlNumber query string false "Control number"
// @Success 200 {object} response.Envelope
// @Router /officers/lookup [get]
func (h *OfficerHandler) Lookup(c *gin.Context) {
	var query dto.OfficerLookupQuery
	if !bindQuery(c, &query) {
		return
	}
	items, err := h.officers.Lookup(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UpdateBirthdate godoc
// @Summary Replace the birthdate
// @Description Re-encrypts the birthdate and recomputes the automatic classification.
// @Tags Officers
// @Accept json
// @Produce json
// @Param id path string true "Officer ID"
// @Param payload body dto.UpdateBirthdateRequest true "Birthdate"
// @Success 200 {object} response.Envelope
// @Router /officers/{id}/birthdate [patch]
func (h *OfficerHandler) UpdateBirthdate(c *gin.Context) {
	var req dto.UpdateBirthdateRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.officers.UpdateBirthdate(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// AddAssignment godoc
// @Summary Add a department assignment
// @Tags Officers
// @Accept json
// @Produce json
// @Param id path string true "Officer ID"
// @Param payload body dto.DepartmentInput true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /officers/{id}/assignments [post]
func (h *OfficerHandler) AddAssignment(c *gin.Context) {
	var req dto.DepartmentInput
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.officers.AddAssignment(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// EndAssignment godoc
// @Summary End a department assignment
// @Tags Officers
// @Param id path string true "Officer ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Router /officers/{id}/assignments/{assignmentId} [delete]
func (h *OfficerHandler) EndAssignment(c *gin.Context) {
	if err := h.officers.EndAssignment(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("assignmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Merge godoc
// @Summary Merge duplicate officers
// @Description Keeps one record and deletes the duplicate after re-pointing its assignments, ledger rows and classification history.
// @Tags Officers
// @Accept json
// @Produce json
// @Param payload body dto.MergeOfficersRequest true "Merge payload"
// @Success 200 {object} response.Envelope
// @Router /officers/merge [post]
func (h *OfficerHandler) Merge(c *gin.Context) {
	var req dto.MergeOfficersRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lifecycle.Merge(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
