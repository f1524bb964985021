package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/cipher"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type transferLister interface {
	List(ctx context.Context, filter models.TransferFilter) ([]models.TransferRecord, int, error)
}

type removalLister interface {
	List(ctx context.Context, filter models.RemovalFilter) ([]models.RemovalRecord, int, error)
}

type viewMarkerStore interface {
	viewMarkerReader
	Create(ctx context.Context, marker *models.ViewMarker, audit *models.AuditEntry) error
}

// LedgerService serves the read side of the transfer ledger and removal records, and the
// per-view clear markers that hide acknowledged rows from report lists.
type LedgerService struct {
	transfers transferLister
	removals  removalLister
	markers   viewMarkerStore
	cipher    cipher.FieldCipher
	authz     ScopeAuthorizer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(transfers transferLister, removals removalLister, markers viewMarkerStore, fieldCipher cipher.FieldCipher, authz ScopeAuthorizer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if authz == nil {
		authz = NewClaimsScopeAuthorizer()
	}
	return &LedgerService{
		transfers: transfers,
		removals:  removals,
		markers:   markers,
		cipher:    fieldCipher,
		authz:     authz,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ListTransfers returns ledger rows for the caller's scope. Outbound listings of a congregation
// start after the latest transfers_out clear marker unless includeCleared is set.
func (s *LedgerService) ListTransfers(ctx context.Context, actor *models.JWTClaims, query dto.TransferListQuery) ([]dto.TransferView, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	scope := ResolveScope(actor, models.Scope{District: query.District, Congregation: query.Congregation})
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, nil, err
	}
	filter := models.TransferFilter{
		Direction:    models.TransferDirection(query.Direction),
		District:     scope.District,
		Congregation: scope.Congregation,
		Week:         query.Week,
		Year:         query.Year,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if filter.Direction == models.TransferDirectionOut && !query.IncludeCleared && scope.Congregation != "" {
		marker, err := s.markers.Latest(ctx, models.ViewTransfersOut, scope)
		if err != nil {
			return nil, nil, appErrors.Storage(err, "failed to load view marker")
		}
		if marker != nil {
			filter.ClearedBefore = &marker.ClearedAt
		}
	}

	rows, total, err := s.transfers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list transfers")
	}
	views := make([]dto.TransferView, 0, len(rows))
	for _, row := range rows {
		name, unavailable := displayIdentity(s.cipher, s.logger, s.metrics, row.OfficerID, row.OfficerIdentity)
		views = append(views, dto.TransferView{
			Transfer:          row.Transfer,
			RefNo:             row.RefNo,
			OfficerName:       name,
			UnavailableFields: unavailable,
		})
	}
	return views, pageOf(query.PageQuery, total), nil
}

// ListRemovals returns removal records for the caller's scope.
func (s *LedgerService) ListRemovals(ctx context.Context, actor *models.JWTClaims, query dto.RemovalListQuery) ([]dto.RemovalView, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	scope := ResolveScope(actor, models.Scope{District: query.District, Congregation: query.Congregation})
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, nil, err
	}
	rows, total, err := s.removals.List(ctx, models.RemovalFilter{
		District:     scope.District,
		Congregation: scope.Congregation,
		Code:         models.RemovalCode(query.Code),
		Page:         query.Page,
		PageSize:     query.PageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list removals")
	}
	views := make([]dto.RemovalView, 0, len(rows))
	for _, row := range rows {
		name, unavailable := displayIdentity(s.cipher, s.logger, s.metrics, row.OfficerID, row.OfficerIdentity)
		views = append(views, dto.RemovalView{
			Removal:           row.Removal,
			RefNo:             row.RefNo,
			OfficerName:       name,
			UnavailableFields: unavailable,
		})
	}
	return views, pageOf(query.PageQuery, total), nil
}

// ClearView records a clear marker for one report list of a congregation. Ledger rows are not
// touched; the list simply starts after the marker.
func (s *LedgerService) ClearView(ctx context.Context, actor *models.JWTClaims, view string, req dto.ScopeRequest) (*models.ViewMarker, error) {
	if view != models.ViewTransfersOut && view != models.ViewClassificationChanges {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown view "+view)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	scope := models.Scope{District: req.District, Congregation: req.Congregation}.Normalize()
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessWrite); err != nil {
		return nil, err
	}
	marker := &models.ViewMarker{
		ViewName:     view,
		District:     scope.District,
		Congregation: scope.Congregation,
		ClearedBy:    actorID(actor),
	}
	audit := newAuditEntry(ctx, actor, models.AuditActionViewClear, "view_markers", "")
	if err := s.markers.Create(ctx, marker, audit); err != nil {
		return nil, appErrors.Storage(err, "failed to clear view")
	}
	s.logger.Info("view cleared",
		zap.String("view", view),
		zap.String("district", scope.District),
		zap.String("congregation", scope.Congregation),
	)
	return marker, nil
}
