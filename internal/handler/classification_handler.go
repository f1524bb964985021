package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/response"
)

type classificationService interface {
	SetManual(ctx context.Context, actor *models.JWTClaims, officerID string, req dto.SetClassificationRequest) (*dto.OfficerView, error)
	Recompute(ctx context.Context, actor *models.JWTClaims, officerID string) (*dto.RecomputeResult, error)
	RecomputeCongregation(ctx context.Context, actor *models.JWTClaims, req dto.ScopeRequest) (*dto.RecomputeResult, error)
	ResetBaseline(ctx context.Context, actor *models.JWTClaims, req dto.ResetBaselineRequest) ([]models.Baseline, error)
	Delta(ctx context.Context, actor *models.JWTClaims, query dto.DeltaQuery) (*dto.ClassificationDeltaResponse, error)
	UpcomingAdults(ctx context.Context, actor *models.JWTClaims, query dto.UpcomingAdultsQuery) (*dto.UpcomingAdultsResponse, error)
	ListChanges(ctx context.Context, actor *models.JWTClaims, query dto.ClassificationChangeQuery) ([]dto.ClassificationChangeView, *models.Pagination, error)
}

// ClassificationHandler exposes cohort labels, baselines and deltas.
type ClassificationHandler struct {
	service classificationService
}

// NewClassificationHandler constructs the handler.
func NewClassificationHandler(svc classificationService) *ClassificationHandler {
	return &ClassificationHandler{service: svc}
}

// SetManual godoc
// @Summary Set the manual classification
// @Description A null classification clears the override.
// @Tags Classifications
// @Accept json
// @Produce json
// @Param id path string true "Officer ID"
// @Param payload body dto.SetClassificationRequest true "Classification"
// @Success 200 {object} response.Envelope
// @Router /officers/{id}/classification [put]
func (h *ClassificationHandler) SetManual(c *gin.Context) {
	var req dto.SetClassificationRequest
	if !bindJSON(c, &req) {
		return
	}
	h.setManual(c, req)
}

// ClearManual godoc
// @Summary Clear the manual classification
// @Tags Classifications
// @Produce json
// @Param id path string true "Officer ID"
// @Success 200 {object} response.Envelope
// @Router /officers/{id}/classification [delete]
func (h *ClassificationHandler) ClearManual(c *gin.Context) {
	h.setManual(c, dto.SetClassificationRequest{})
}

func (h *ClassificationHandler) setManual(c *gin.Context, req dto.SetClassificationRequest) {
	view, err := h.service.SetManual(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Recompute godoc
// @Summary Recompute one officer's automatic classification
// @Tags Classifications
// @Produce json
// @Param id path string true "Officer ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /officers/{id}/classification/recompute [post]
func (h *ClassificationHandler) Recompute(c *gin.Context) {
	result, err := h.service.Recompute(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RecomputeCongregation godoc
// @Summary Recompute every active officer of a congregation
// @Tags Classifications
// @Accept json
// @Produce json
// @Param payload body dto.ScopeRequest true "Congregation"
// @Success 200 {object} response.Envelope
// @Router /classifications/recompute [post]
func (h *ClassificationHandler) RecomputeCongregation(c *gin.Context) {
	var req dto.ScopeRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.RecomputeCongregation(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ResetBaseline godoc
// @Summary Reset a classification baseline
// @Description Starts a new delta window for one classification (or all) and week, month or both.
// @Tags Classifications
// @Accept json
// @Produce json
// @Param payload body dto.ResetBaselineRequest true "Baseline reset"
// @Success 201 {object} response.Envelope
// @Router /classifications/baselines/reset [post]
func (h *ClassificationHandler) ResetBaseline(c *gin.Context) {
	var req dto.ResetBaselineRequest
	if !bindJSON(c, &req) {
		return
	}
	baselines, err := h.service.ResetBaseline(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, baselines)
}

// Delta godoc
// @Summary Classification delta since baseline
// @Tags Classifications
// @Produce json
// @Param district query string true "District code"
// @Param congregation query string true "Congregation code"
// @Param classification query string true "Child, Youth, Adult or all"
// @Param period query string true "week or month"
// @Success 200 {object} response.Envelope
// @Router /classifications/delta [get]
func (h *ClassificationHandler) Delta(c *gin.Context) {
	var query dto.DeltaQuery
	if !bindQuery(c, &query) {
		return
	}
	result, err := h.service.Delta(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Changes godoc
// @Summary Classification change log
// @Tags Classifications
// @Produce json
// @Param district query string false "District code"
// @Param congregation query string false "Congregation code"
// @Param source query string false "auto, manual or manual_cleared"
// @Param include_cleared query bool false "Include cleared rows"
// @Success 200 {object} response.Envelope
// @Router /classifications/changes [get]
func (h *ClassificationHandler) Changes(c *gin.Context) {
	var query dto.ClassificationChangeQuery
	if !bindQuery(c, &query) {
		return
	}
	items, pagination, err := h.service.ListChanges(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpcomingAdults godoc
// @Summary Officers turning adult soon
// @Tags Classifications
// @Produce json
// @Param district query string true "District code"
// @Param congregation query string true "Congregation code"
// @Param withinDays query int false "Window in days (default 90)"
// @Success 200 {object} response.Envelope
// @Router /classifications/upcoming-adults [get]
func (h *ClassificationHandler) UpcomingAdults(c *gin.Context) {
	var query dto.UpcomingAdultsQuery
	if !bindQuery(c, &query) {
		return
	}
	result, err := h.service.UpcomingAdults(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
