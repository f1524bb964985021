package service

import (
	"context"
	"errors"
	"net/http"
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

// Lifecycle operation names used in logs and metrics.
const (
	opIntake      = "intake"
	opTransferIn  = "transfer_in"
	opTransferOut = "transfer_out"
	opRemoval     = "removal"
	opMerge       = "merge"
)

type lifecycleStore interface {
	CreateOfficer(ctx context.Context, params repository.CreateParams) error
	Deactivate(ctx context.Context, params repository.DeactivateParams) (*models.DepartmentSnapshot, error)
	Merge(ctx context.Context, params repository.MergeParams) (*repository.MergeResult, error)
}

type officerLookup interface {
	FindByID(ctx context.Context, id string) (*models.Officer, error)
	ListAssignments(ctx context.Context, officerID string, activeOnly bool) ([]models.DepartmentAssignment, error)
}

type headcountTracker interface {
	Invalidate(ctx context.Context, scopes ...models.Scope)
}

type headcountReader interface {
	Get(ctx context.Context, scope models.Scope) (*models.Headcount, error)
}

// LifecycleService runs intake, transfers, removals and merges. Each call validates its typed
// request, checks scope, then hands one transactional unit to the store.
type LifecycleService struct {
	store      lifecycleStore
	officers   officerLookup
	counts     headcountReader
	tracker    headcountTracker
	cipher     cipher.FieldCipher
	authz      ScopeAuthorizer
	classifier AgeClassifier
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// LifecycleServiceOption configures the service.
type LifecycleServiceOption func(*LifecycleService)

// WithLifecycleClassifier overrides the default age thresholds.
func WithLifecycleClassifier(classifier AgeClassifier) LifecycleServiceOption {
	return func(s *LifecycleService) {
		s.classifier = classifier
	}
}

// WithLifecycleHeadcount wires counter reads and cache invalidation.
func WithLifecycleHeadcount(counts headcountReader, tracker headcountTracker) LifecycleServiceOption {
	return func(s *LifecycleService) {
		s.counts = counts
		s.tracker = tracker
	}
}

// WithLifecycleMetrics records lifecycle metrics.
func WithLifecycleMetrics(metrics *MetricsService) LifecycleServiceOption {
	return func(s *LifecycleService) {
		s.metrics = metrics
	}
}

// WithLifecycleClock overrides the clock.
func WithLifecycleClock(now func() time.Time) LifecycleServiceOption {
	return func(s *LifecycleService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLifecycleService constructs the service with defaults.
func NewLifecycleService(store lifecycleStore, officers officerLookup, fieldCipher cipher.FieldCipher, authz ScopeAuthorizer, validate *validator.Validate, logger *zap.Logger, opts ...LifecycleServiceOption) *LifecycleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if authz == nil {
		authz = NewClaimsScopeAuthorizer()
	}
	svc := &LifecycleService{
		store:      store,
		officers:   officers,
		cipher:     fieldCipher,
		authz:      authz,
		classifier: NewAgeClassifier(DefaultYouthMinAge, DefaultAdultMinAge),
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Intake registers a brand-new officer with its first department assignment.
func (s *LifecycleService) Intake(ctx context.Context, actor *models.JWTClaims, req dto.IntakeRequest) (resp *dto.TransferInResponse, err error) {
	defer s.observe(opIntake, time.Now(), &err)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	scope := models.Scope{District: req.District, Congregation: req.Congregation}.Normalize()
	return s.createOfficer(ctx, actor, opIntake, scope, req.Officer, req.Department, nil)
}

// TransferIn receives an officer from another congregation as a fresh officer row. Retrying a
// successful call creates a second officer.
func (s *LifecycleService) TransferIn(ctx context.Context, actor *models.JWTClaims, req dto.TransferInRequest) (resp *dto.TransferInResponse, err error) {
	defer s.observe(opTransferIn, time.Now(), &err)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	transferDate, err := parseDate(req.TransferDate, "transferDate")
	if err != nil {
		return nil, err
	}
	scope := models.Scope{District: req.District, Congregation: req.Congregation}.Normalize()
	week, year := models.WeekBucket(*transferDate)
	transfer := &models.Transfer{
		FromDistrict:     cipher.NormalizeText(req.FromDistrict),
		FromCongregation: cipher.NormalizeText(req.FromCongregation),
		ToDistrict:       scope.District,
		ToCongregation:   scope.Congregation,
		TransferDate:     *transferDate,
		Week:             week,
		Year:             year,
		ProcessedBy:      actorID(actor),
		Notes:            optionalText(req.Notes),
	}
	return s.createOfficer(ctx, actor, opTransferIn, scope, req.Officer, req.Department, transfer)
}

func (s *LifecycleService) createOfficer(ctx context.Context, actor *models.JWTClaims, op string, scope models.Scope, fields dto.OfficerFields, department dto.DepartmentInput, transfer *models.Transfer) (*dto.TransferInResponse, error) {
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessWrite); err != nil {
		return nil, err
	}
	oathDate, err := parseDate(department.OathDate, "oathDate")
	if err != nil {
		return nil, err
	}
	birthdate, err := parseDate(fields.Birthdate, "birthdate")
	if err != nil {
		return nil, err
	}
	deptName := cipher.NormalizeText(department.Department)
	if deptName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}

	officer, err := sealOfficer(s.cipher, fields, scope)
	if err != nil {
		return nil, err
	}
	officer.ClassificationAuto = s.classifier.ClassifyPtr(birthdate, s.now())

	assignment := &models.DepartmentAssignment{
		Department: deptName,
		Duty:       optionalText(department.Duty),
		OathDate:   oathDate,
	}
	action := models.AuditActionOfficerIntake
	if transfer != nil {
		action = models.AuditActionTransferIn
	}
	params := repository.CreateParams{
		Officer:    officer,
		Assignment: assignment,
		Transfer:   transfer,
		Audit:      newAuditEntry(ctx, actor, action, "officers", officer.ID),
	}
	if err := s.store.CreateOfficer(ctx, params); err != nil {
		s.logger.Error("officer create failed", zap.String("operation", op), zap.String("district", scope.District), zap.String("congregation", scope.Congregation), zap.Error(err))
		return nil, mapStoreError(err, "failed to register officer")
	}
	s.invalidate(ctx, scope)

	resp := &dto.TransferInResponse{OfficerID: officer.ID, RefNo: officer.RefNo, Headcount: s.currentHeadcount(ctx, scope)}
	if transfer != nil {
		resp.TransferID = transfer.ID
		resp.Week = transfer.Week
		resp.Year = transfer.Year
	}
	s.logger.Info("officer registered",
		zap.String("operation", op),
		zap.String("officer_id", officer.ID),
		zap.String("district", scope.District),
		zap.String("congregation", scope.Congregation),
	)
	return resp, nil
}

// TransferOut deactivates an active officer and records the move with its department snapshot.
func (s *LifecycleService) TransferOut(ctx context.Context, actor *models.JWTClaims, req dto.TransferOutRequest) (resp *dto.TransferOutResponse, err error) {
	defer s.observe(opTransferOut, time.Now(), &err)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	transferDate, err := parseDate(req.TransferDate, "transferDate")
	if err != nil {
		return nil, err
	}
	officer, err := s.loadForWrite(ctx, actor, req.OfficerID)
	if err != nil {
		return nil, err
	}

	week, year := models.WeekBucket(*transferDate)
	transfer := &models.Transfer{
		ToDistrict:     cipher.NormalizeText(req.ToDistrict),
		ToCongregation: cipher.NormalizeText(req.ToCongregation),
		TransferDate:   *transferDate,
		Week:           week,
		Year:           year,
		ProcessedBy:    actorID(actor),
		Notes:          optionalText(req.Notes),
	}
	params := repository.DeactivateParams{
		OfficerID:     officer.ID,
		ExpectedScope: officer.Scope(),
		Transfer:      transfer,
		ChangedBy:     actorID(actor),
		Audit:         newAuditEntry(ctx, actor, models.AuditActionTransferOut, "officers", officer.ID),
	}
	params.Auto, params.RefreshAuto = s.autoAt(officer, *transferDate)
	_, err = s.store.Deactivate(ctx, params)
	if err != nil {
		s.logDeactivateFailure(opTransferOut, officer, err)
		return nil, mapStoreError(err, "failed to transfer officer out")
	}
	s.invalidate(ctx, officer.Scope())
	s.logger.Info("officer transferred out",
		zap.String("officer_id", officer.ID),
		zap.String("district", officer.District),
		zap.String("congregation", officer.Congregation),
		zap.Int("week", week),
		zap.Int("year", year),
	)
	return &dto.TransferOutResponse{
		OfficerID:  officer.ID,
		TransferID: transfer.ID,
		Week:       transfer.Week,
		Year:       transfer.Year,
		Department: transfer.Department,
		Duty:       transfer.Duty,
	}, nil
}

// RemoveOfficer deactivates an active officer without a destination congregation.
func (s *LifecycleService) RemoveOfficer(ctx context.Context, actor *models.JWTClaims, req dto.RemovalRequest) (resp *dto.RemovalResponse, err error) {
	defer s.observe(opRemoval, time.Now(), &err)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.ReasonCode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown removal reason code")
	}
	removalDate, err := parseDate(req.RemovalDate, "removalDate")
	if err != nil {
		return nil, err
	}
	officer, err := s.loadForWrite(ctx, actor, req.OfficerID)
	if err != nil {
		return nil, err
	}

	removal := &models.Removal{
		RemovalCode: req.ReasonCode,
		Reason:      strings.TrimSpace(req.Reason),
		RemovalDate: *removalDate,
		ProcessedBy: actorID(actor),
	}
	params := repository.DeactivateParams{
		OfficerID:     officer.ID,
		ExpectedScope: officer.Scope(),
		Removal:       removal,
		ChangedBy:     actorID(actor),
		Audit:         newAuditEntry(ctx, actor, models.AuditActionOfficerRemove, "officers", officer.ID),
	}
	params.Auto, params.RefreshAuto = s.autoAt(officer, *removalDate)
	_, err = s.store.Deactivate(ctx, params)
	if err != nil {
		s.logDeactivateFailure(opRemoval, officer, err)
		return nil, mapStoreError(err, "failed to remove officer")
	}
	s.invalidate(ctx, officer.Scope())
	s.logger.Info("officer removed",
		zap.String("officer_id", officer.ID),
		zap.String("district", officer.District),
		zap.String("congregation", officer.Congregation),
		zap.String("reason_code", string(removal.RemovalCode)),
	)
	return &dto.RemovalResponse{
		OfficerID:    officer.ID,
		RemovalID:    removal.ID,
		DepartmentID: removal.DepartmentID,
		Department:   removal.Department,
	}, nil
}

// Merge folds a duplicate officer row into the kept one. The actor needs write scope over both.
func (s *LifecycleService) Merge(ctx context.Context, actor *models.JWTClaims, req dto.MergeOfficersRequest) (resp *dto.MergeOfficersResponse, err error) {
	defer s.observe(opMerge, time.Now(), &err)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	keep, err := s.loadForWrite(ctx, actor, req.KeepID)
	if err != nil {
		return nil, err
	}
	drop, err := s.loadForWrite(ctx, actor, req.DropID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(keep.District, drop.District) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "officers in different districts cannot be merged")
	}

	result, err := s.store.Merge(ctx, repository.MergeParams{
		KeepID: keep.ID,
		DropID: drop.ID,
		Audit:  newAuditEntry(ctx, actor, models.AuditActionOfficerMerge, "officers", keep.ID),
	})
	if err != nil {
		s.logger.Error("officer merge failed", zap.String("operation", opMerge), zap.String("officer_id", keep.ID), zap.String("dropped_id", drop.ID), zap.Error(err))
		return nil, mapStoreError(err, "failed to merge officers")
	}
	s.invalidate(ctx, keep.Scope(), drop.Scope())

	assignments, err := s.officers.ListAssignments(ctx, result.Kept.ID, false)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load merged assignments")
	}
	s.logger.Info("officers merged", zap.String("officer_id", result.Kept.ID), zap.String("dropped_id", result.DroppedID))
	return &dto.MergeOfficersResponse{
		Officer:          displayOfficer(s.cipher, s.logger, s.metrics, result.Kept, assignments),
		DroppedID:        result.DroppedID,
		DroppedWasActive: result.DroppedWasActive,
	}, nil
}

// loadForWrite reads the officer and checks write scope over its current congregation.
func (s *LifecycleService) loadForWrite(ctx context.Context, actor *models.JWTClaims, officerID string) (*models.Officer, error) {
	officer, err := s.officers.FindByID(ctx, strings.TrimSpace(officerID))
	if err != nil {
		return nil, mapStoreError(err, "failed to load officer")
	}
	if err := s.authz.Authorize(ctx, actor, officer.Scope(), models.AccessWrite); err != nil {
		return nil, err
	}
	return officer, nil
}

// autoAt classifies the officer as of the given date. It reports false when the birthdate cannot
// be read, leaving the stored label in place.
func (s *LifecycleService) autoAt(officer *models.Officer, at time.Time) (*models.Classification, bool) {
	birthdate, err := openBirthdate(s.cipher, s.logger, s.metrics, officer)
	if err != nil {
		return nil, false
	}
	return s.classifier.ClassifyPtr(birthdate, at), true
}

func (s *LifecycleService) invalidate(ctx context.Context, scopes ...models.Scope) {
	if s.tracker != nil {
		s.tracker.Invalidate(ctx, scopes...)
	}
}

// currentHeadcount reads the committed counter for the response; a failed read leaves it unset.
func (s *LifecycleService) currentHeadcount(ctx context.Context, scope models.Scope) *int {
	if s.counts == nil {
		return nil
	}
	row, err := s.counts.Get(ctx, scope)
	if err != nil {
		s.logger.Warn("headcount read after commit failed", zap.String("district", scope.District), zap.String("congregation", scope.Congregation), zap.Error(err))
		return nil
	}
	total := row.TotalCount
	return &total
}

func (s *LifecycleService) logDeactivateFailure(op string, officer *models.Officer, err error) {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("officer_id", officer.ID),
		zap.String("district", officer.District),
		zap.String("congregation", officer.Congregation),
		zap.Error(err),
	}
	if errors.Is(err, repository.ErrOfficerInactive) || errors.Is(err, repository.ErrScopeMismatch) {
		s.logger.Warn("officer deactivation rejected", fields...)
		return
	}
	s.logger.Error("officer deactivation failed", fields...)
}

func (s *LifecycleService) observe(op string, start time.Time, errp *error) {
	outcome := OutcomeSuccess
	if *errp != nil {
		outcome = OutcomeFailed
		if appErrors.FromError(*errp).Status < http.StatusInternalServerError {
			outcome = OutcomeRejected
		}
	}
	s.metrics.ObserveLifecycle(op, outcome, time.Since(start))
}
