package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/internal/repository"
	"github.com/noah-isme/officer-registry-api/pkg/cipher"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type officerStore interface {
	FindByID(ctx context.Context, id string) (*models.Officer, error)
	FindByRefNo(ctx context.Context, refNo string) (*models.Officer, error)
	FindByEncryptedNumber(ctx context.Context, district, column, ciphertext string) ([]models.Officer, error)
	List(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, int, error)
	ListAssignments(ctx context.Context, officerID string, activeOnly bool) ([]models.DepartmentAssignment, error)
	UpdateBirthdate(ctx context.Context, params repository.BirthdateParams) (*models.Officer, error)
	AddAssignment(ctx context.Context, assignment *models.DepartmentAssignment, expected models.Scope, audit *models.AuditEntry) error
	EndAssignment(ctx context.Context, officerID, assignmentID string, expected models.Scope, audit *models.AuditEntry) error
}

type transferHistory interface {
	ListByOfficer(ctx context.Context, officerID string) ([]models.Transfer, error)
}

// OfficerService serves officer reads with decrypted display fields and the per-officer
// maintenance writes (birthdate, assignments).
type OfficerService struct {
	repo       officerStore
	transfers  transferHistory
	cipher     cipher.FieldCipher
	authz      ScopeAuthorizer
	classifier AgeClassifier
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewOfficerService constructs the service.
func NewOfficerService(repo officerStore, transfers transferHistory, fieldCipher cipher.FieldCipher, authz ScopeAuthorizer, classifier AgeClassifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OfficerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if authz == nil {
		authz = NewClaimsScopeAuthorizer()
	}
	return &OfficerService{
		repo:       repo,
		transfers:  transfers,
		cipher:     fieldCipher,
		authz:      authz,
		classifier: classifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Get returns one officer with its full assignment history and transfer ledger.
func (s *OfficerService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.OfficerView, error) {
	officer, err := s.load(ctx, actor, id, models.AccessRead)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, officer)
}

// GetByRefNo resolves an officer by its shareable reference.
func (s *OfficerService) GetByRefNo(ctx context.Context, actor *models.JWTClaims, refNo string) (*dto.OfficerView, error) {
	officer, err := s.repo.FindByRefNo(ctx, strings.ToUpper(strings.TrimSpace(refNo)))
	if err != nil {
		return nil, mapStoreError(err, "failed to load officer")
	}
	if err := s.authz.Authorize(ctx, actor, officer.Scope(), models.AccessRead); err != nil {
		return nil, err
	}
	return s.detail(ctx, officer)
}

func (s *OfficerService) detail(ctx context.Context, officer *models.Officer) (*dto.OfficerView, error) {
	assignments, err := s.repo.ListAssignments(ctx, officer.ID, false)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load department assignments")
	}
	view := displayOfficer(s.cipher, s.logger, s.metrics, officer, assignments)
	if s.transfers != nil {
		history, err := s.transfers.ListByOfficer(ctx, officer.ID)
		if err != nil {
			return nil, appErrors.Storage(err, "failed to load transfer history")
		}
		view.Transfers = history
	}
	return view, nil
}

// List returns a page of officers inside the actor's scope.
func (s *OfficerService) List(ctx context.Context, actor *models.JWTClaims, query dto.OfficerListQuery) ([]dto.OfficerView, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	scope := ResolveScope(actor, models.Scope{District: query.District, Congregation: query.Congregation})
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, nil, err
	}
	filter := models.OfficerFilter{
		District:     scope.District,
		Congregation: scope.Congregation,
		Status:       models.OfficerStatus(query.Status),
		Purok:        strings.TrimSpace(query.Purok),
		Grupo:        strings.TrimSpace(query.Grupo),
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	start := time.Now()
	rows, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("officer_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list officers")
	}
	views := make([]dto.OfficerView, 0, len(rows))
	for i := range rows {
		views = append(views, *displayOfficer(s.cipher, s.logger, s.metrics, &rows[i], nil))
	}
	return views, pageOf(query.PageQuery, total), nil
}

// Lookup finds officers by exact registry or control number within a district. Only matches the
// actor may read are returned.
func (s *OfficerService) Lookup(ctx context.Context, actor *models.JWTClaims, query dto.OfficerLookupQuery) ([]dto.OfficerView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	district := models.Scope{District: query.District}.Normalize().District
	column, value := "registry_number", query.RegistryNumber
	if strings.TrimSpace(value) == "" {
		column, value = "control_number", query.ControlNumber
	}
	sealed, err := s.cipher.Encrypt(cipher.NormalizeNumber(value), district)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare lookup")
	}
	if sealed == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lookup value is required")
	}
	rows, err := s.repo.FindByEncryptedNumber(ctx, district, column, sealed)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to look up officer")
	}
	views := make([]dto.OfficerView, 0, len(rows))
	for i := range rows {
		if err := s.authz.Authorize(ctx, actor, rows[i].Scope(), models.AccessRead); err != nil {
			continue
		}
		views = append(views, *displayOfficer(s.cipher, s.logger, s.metrics, &rows[i], nil))
	}
	return views, nil
}

// UpdateBirthdate re-encrypts the birthdate and recomputes the automatic label in one write.
func (s *OfficerService) UpdateBirthdate(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateBirthdateRequest) (*dto.OfficerView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	birthdate, err := parseDate(req.Birthdate, "birthdate")
	if err != nil {
		return nil, err
	}
	officer, err := s.load(ctx, actor, id, models.AccessWrite)
	if err != nil {
		return nil, err
	}
	var sealed *string
	if birthdate != nil {
		out, err := s.cipher.Encrypt(birthdate.Format(dto.DateLayout), officer.District)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encrypt birthdate")
		}
		sealed = &out
	}
	updated, err := s.repo.UpdateBirthdate(ctx, repository.BirthdateParams{
		OfficerID:     officer.ID,
		Birthdate:     sealed,
		Auto:          s.classifier.ClassifyPtr(birthdate, s.now()),
		ExpectedScope: officer.Scope(),
		ChangedBy:     actorID(actor),
		Audit:         newAuditEntry(ctx, actor, models.AuditActionBirthdateUpdate, "officers", officer.ID),
	})
	if err != nil {
		return nil, mapStoreError(err, "failed to update birthdate")
	}
	s.logger.Info("officer birthdate updated", zap.String("officer_id", officer.ID), zap.String("district", officer.District))
	return displayOfficer(s.cipher, s.logger, s.metrics, updated, nil), nil
}

// AddAssignment gives an active officer another department assignment.
func (s *OfficerService) AddAssignment(ctx context.Context, actor *models.JWTClaims, id string, req dto.DepartmentInput) (*models.DepartmentAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	oathDate, err := parseDate(req.OathDate, "oathDate")
	if err != nil {
		return nil, err
	}
	officer, err := s.load(ctx, actor, id, models.AccessWrite)
	if err != nil {
		return nil, err
	}
	assignment := &models.DepartmentAssignment{
		OfficerID:  officer.ID,
		Department: cipher.NormalizeText(req.Department),
		Duty:       optionalText(req.Duty),
		OathDate:   oathDate,
	}
	audit := newAuditEntry(ctx, actor, models.AuditActionAssignmentAdd, "department_assignments", officer.ID)
	if err := s.repo.AddAssignment(ctx, assignment, officer.Scope(), audit); err != nil {
		return nil, mapStoreError(err, "failed to add department assignment")
	}
	return assignment, nil
}

// EndAssignment closes one active assignment; the row stays as history.
func (s *OfficerService) EndAssignment(ctx context.Context, actor *models.JWTClaims, id, assignmentID string) error {
	officer, err := s.load(ctx, actor, id, models.AccessWrite)
	if err != nil {
		return err
	}
	audit := newAuditEntry(ctx, actor, models.AuditActionAssignmentEnd, "department_assignments", assignmentID)
	if err := s.repo.EndAssignment(ctx, officer.ID, assignmentID, officer.Scope(), audit); err != nil {
		return mapStoreError(err, "failed to end department assignment")
	}
	return nil
}

func (s *OfficerService) load(ctx context.Context, actor *models.JWTClaims, id string, level models.AccessLevel) (*models.Officer, error) {
	officer, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapStoreError(err, "failed to load officer")
	}
	if err := s.authz.Authorize(ctx, actor, officer.Scope(), level); err != nil {
		return nil, err
	}
	return officer, nil
}

func pageOf(query dto.PageQuery, total int) *models.Pagination {
	page, size := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
