package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/internal/service"
	"github.com/noah-isme/officer-registry-api/pkg/response"
)

type headcountService interface {
	Get(ctx context.Context, actor *models.JWTClaims, scope models.Scope) (*models.Headcount, error)
	ListByDistrict(ctx context.Context, actor *models.JWTClaims, district string) ([]models.Headcount, error)
	Verify(ctx context.Context, actor *models.JWTClaims, scope models.Scope) (*dto.HeadcountVerification, error)
}

type headcountQuery struct {
	District     string `form:"district"`
	Congregation string `form:"congregation"`
}

// HeadcountHandler exposes the materialized headcounts.
type HeadcountHandler struct {
	service headcountService
}

// NewHeadcountHandler constructs the handler.
func NewHeadcountHandler(svc headcountService) *HeadcountHandler {
	return &HeadcountHandler{service: svc}
}

func (h *HeadcountHandler) scope(c *gin.Context) (models.Scope, bool) {
	var query headcountQuery
	if !bindQuery(c, &query) {
		return models.Scope{}, false
	}
	return service.ResolveScope(claimsFromContext(c), models.Scope{District: query.District, Congregation: query.Congregation}), true
}

// Get godoc
// @Summary Get headcount
// @Description Returns one congregation's counter, or every counter of the district when no congregation is given.
// @Tags Headcount
// @Produce json
// @Param district query string false "District code"
// @Param congregation query string false "Congregation code"
// @Success 200 {object} response.Envelope
// @Router /headcount [get]
func (h *HeadcountHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	actor := claimsFromContext(c)
	if scope.Congregation == "" {
		rows, err := h.service.ListByDistrict(c.Request.Context(), actor, scope.District)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, rows, nil)
		return
	}
	row, err := h.service.Get(c.Request.Context(), actor, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Verify godoc
// @Summary Verify a headcount
// @Description Compares the counter with a live count of active officers. Drift is reported, never repaired.
// @Tags Headcount
// @Produce json
// @Param district query string false "District code"
// @Param congregation query string true "Congregation code"
// @Success 200 {object} response.Envelope
// @Router /headcount/verify [get]
func (h *HeadcountHandler) Verify(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	result, err := h.service.Verify(c.Request.Context(), claimsFromContext(c), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
