package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int, error)
}

// AuditService exposes forensic reads of the audit trail. Entries are not scoped to a
// congregation, so only superadmins may read them.
type AuditService struct {
	repo      auditLister
	validator *validator.Validate
}

// NewAuditService constructs the service.
func NewAuditService(repo auditLister, validate *validator.Validate) *AuditService {
	if validate == nil {
		validate = validator.New()
	}
	return &AuditService{repo: repo, validator: validate}
}

// List returns audit entries newest first.
func (s *AuditService) List(ctx context.Context, actor *models.JWTClaims, query dto.AuditListQuery) ([]models.AuditEntry, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if actor.Role != models.RoleSuperAdmin {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "audit trail is restricted to superadmins")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	entries, total, err := s.repo.List(ctx, models.AuditFilter{
		TableName: query.TableName,
		RecordID:  query.RecordID,
		Actor:     query.Actor,
		Action:    query.Action,
		Page:      query.Page,
		PageSize:  query.PageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list audit entries")
	}
	return entries, pageOf(query.PageQuery, total), nil
}
