package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/internal/repository"
	"github.com/noah-isme/officer-registry-api/pkg/cipher"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

// DefaultUpcomingAdultsWindow is used when the caller does not pass withinDays.
const DefaultUpcomingAdultsWindow = 90

type classificationStore interface {
	SetManual(ctx context.Context, params repository.ManualParams) (*models.Officer, error)
	ApplyAuto(ctx context.Context, officerID string, auto *models.Classification, changedBy string) (bool, error)
	InsertBaselines(ctx context.Context, baselines []models.Baseline, audit *models.AuditEntry) error
	LatestBaseline(ctx context.Context, scope models.Scope, classification models.Classification, period models.BaselinePeriod) (*models.Baseline, error)
	CountAdded(ctx context.Context, scope models.Scope, classification models.Classification, since time.Time) (int, error)
	CountRemoved(ctx context.Context, scope models.Scope, classification models.Classification, since time.Time) (int, error)
	ListChanges(ctx context.Context, filter models.ClassificationChangeFilter) ([]models.ClassificationChangeRecord, int, error)
}

type classificationOfficers interface {
	FindByID(ctx context.Context, id string) (*models.Officer, error)
	ListActiveInScope(ctx context.Context, scope models.Scope) ([]models.Officer, error)
}

type viewMarkerReader interface {
	Latest(ctx context.Context, view string, scope models.Scope) (*models.ViewMarker, error)
}

// ClassificationWindows are the rolling windows used when no baseline was ever recorded.
type ClassificationWindows struct {
	Week  time.Duration
	Month time.Duration
}

func (w ClassificationWindows) of(period models.BaselinePeriod) time.Duration {
	if period == models.PeriodMonth {
		if w.Month > 0 {
			return w.Month
		}
		return 30 * 24 * time.Hour
	}
	if w.Week > 0 {
		return w.Week
	}
	return 7 * 24 * time.Hour
}

// ClassificationService maintains automatic and manual cohort labels and the baseline deltas.
type ClassificationService struct {
	repo       classificationStore
	officers   classificationOfficers
	markers    viewMarkerReader
	cipher     cipher.FieldCipher
	authz      ScopeAuthorizer
	classifier AgeClassifier
	windows    ClassificationWindows
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewClassificationService constructs the service.
func NewClassificationService(repo classificationStore, officers classificationOfficers, markers viewMarkerReader, fieldCipher cipher.FieldCipher, authz ScopeAuthorizer, classifier AgeClassifier, windows ClassificationWindows, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if authz == nil {
		authz = NewClaimsScopeAuthorizer()
	}
	return &ClassificationService{
		repo:       repo,
		officers:   officers,
		markers:    markers,
		cipher:     fieldCipher,
		authz:      authz,
		classifier: classifier,
		windows:    windows,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetManual sets the override, or clears it when the request carries no classification.
func (s *ClassificationService) SetManual(ctx context.Context, actor *models.JWTClaims, officerID string, req dto.SetClassificationRequest) (*dto.OfficerView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.Classification != nil && !req.Classification.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classification must be Child, Youth or Adult")
	}
	officer, err := s.load(ctx, actor, officerID, models.AccessWrite)
	if err != nil {
		return nil, err
	}
	action := models.AuditActionClassificationManual
	if req.Classification == nil {
		action = models.AuditActionClassificationClear
	}
	updated, err := s.repo.SetManual(ctx, repository.ManualParams{
		OfficerID:     officer.ID,
		Manual:        req.Classification,
		ExpectedScope: officer.Scope(),
		ChangedBy:     actorID(actor),
		Audit:         newAuditEntry(ctx, actor, action, "officers", officer.ID),
	})
	if err != nil {
		return nil, mapStoreError(err, "failed to update classification")
	}
	s.logger.Info("manual classification updated",
		zap.String("officer_id", officer.ID),
		zap.String("district", officer.District),
		zap.String("congregation", officer.Congregation),
		zap.Bool("cleared", req.Classification == nil),
	)
	return displayOfficer(s.cipher, s.logger, s.metrics, updated, nil), nil
}

// Recompute refreshes one officer's automatic label from the stored birthdate.
func (s *ClassificationService) Recompute(ctx context.Context, actor *models.JWTClaims, officerID string) (*dto.RecomputeResult, error) {
	officer, err := s.load(ctx, actor, officerID, models.AccessWrite)
	if err != nil {
		return nil, err
	}
	auto, err := s.autoFor(officer)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDecryptionFailure.Code, appErrors.ErrDecryptionFailure.Status, "birthdate unavailable")
	}
	changed, err := s.repo.ApplyAuto(ctx, officer.ID, auto, actorID(actor))
	if err != nil {
		return nil, mapStoreError(err, "failed to recompute classification")
	}
	result := &dto.RecomputeResult{Scanned: 1}
	if changed {
		result.Changed = 1
	}
	return result, nil
}

// RecomputeCongregation refreshes every active officer of a congregation. Officers whose
// birthdate cannot be decrypted are skipped and counted as unavailable.
func (s *ClassificationService) RecomputeCongregation(ctx context.Context, actor *models.JWTClaims, req dto.ScopeRequest) (*dto.RecomputeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	scope := models.Scope{District: req.District, Congregation: req.Congregation}.Normalize()
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessWrite); err != nil {
		return nil, err
	}
	officers, err := s.officers.ListActiveInScope(ctx, scope)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list officers")
	}
	result := &dto.RecomputeResult{}
	for i := range officers {
		result.Scanned++
		auto, err := s.autoFor(&officers[i])
		if err != nil {
			result.Unavailable++
			continue
		}
		changed, err := s.repo.ApplyAuto(ctx, officers[i].ID, auto, actorID(actor))
		if err != nil {
			return nil, mapStoreError(err, "failed to recompute classification")
		}
		if changed {
			result.Changed++
		}
	}
	s.logger.Info("congregation classifications recomputed",
		zap.String("district", scope.District),
		zap.String("congregation", scope.Congregation),
		zap.Int("scanned", result.Scanned),
		zap.Int("changed", result.Changed),
		zap.Int("unavailable", result.Unavailable),
	)
	return result, nil
}

// autoFor decrypts the stored birthdate and classifies it as of now.
func (s *ClassificationService) autoFor(officer *models.Officer) (*models.Classification, error) {
	birthdate, err := s.birthdate(officer)
	if err != nil {
		return nil, err
	}
	return s.classifier.ClassifyPtr(birthdate, s.now()), nil
}

func (s *ClassificationService) birthdate(officer *models.Officer) (*time.Time, error) {
	return openBirthdate(s.cipher, s.logger, s.metrics, officer)
}

// ResetBaseline starts a new delta window for one classification (or "all") and period(s).
// Nothing else is touched; older baselines stay and the newest wins.
func (s *ClassificationService) ResetBaseline(ctx context.Context, actor *models.JWTClaims, req dto.ResetBaselineRequest) ([]models.Baseline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	scope := models.Scope{District: req.District, Congregation: req.Congregation}.Normalize()
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessWrite); err != nil {
		return nil, err
	}
	now := s.now()
	periods := req.Period.Expand()
	baselines := make([]models.Baseline, 0, len(periods))
	for _, period := range periods {
		baselines = append(baselines, models.Baseline{
			District:       scope.District,
			Congregation:   scope.Congregation,
			Classification: req.Classification,
			Period:         period,
			ResetAt:        now,
			ResetBy:        actorID(actor),
		})
	}
	audit := newAuditEntry(ctx, actor, models.AuditActionBaselineReset, "classification_baselines", scope.District+"/"+scope.Congregation)
	if err := s.repo.InsertBaselines(ctx, baselines, audit); err != nil {
		return nil, mapStoreError(err, "failed to reset baseline")
	}
	return baselines, nil
}

// Delta reports added/removed/net per classification since its resolved baseline. Each label
// resolves its own baseline: classification-specific, then "all", then the rolling window.
func (s *ClassificationService) Delta(ctx context.Context, actor *models.JWTClaims, query dto.DeltaQuery) (*dto.ClassificationDeltaResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	scope := models.Scope{District: query.District, Congregation: query.Congregation}.Normalize()
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, err
	}
	labels := []models.Classification{query.Classification}
	if query.Classification == models.ClassificationAll {
		labels = models.Classifications
	}

	resp := &dto.ClassificationDeltaResponse{
		District:     scope.District,
		Congregation: scope.Congregation,
		Period:       query.Period,
		Items:        make([]dto.ClassificationDelta, 0, len(labels)),
	}
	for _, label := range labels {
		since, source, err := s.resolveBaseline(ctx, scope, label, query.Period)
		if err != nil {
			return nil, appErrors.Storage(err, "failed to resolve baseline")
		}
		added, err := s.repo.CountAdded(ctx, scope, label, since)
		if err != nil {
			return nil, appErrors.Storage(err, "failed to count added officers")
		}
		removed, err := s.repo.CountRemoved(ctx, scope, label, since)
		if err != nil {
			return nil, appErrors.Storage(err, "failed to count removed officers")
		}
		resp.Items = append(resp.Items, dto.ClassificationDelta{
			Classification: label,
			Baseline:       since,
			BaselineSource: source,
			Added:          added,
			Removed:        removed,
			Net:            added - removed,
		})
	}
	return resp, nil
}

func (s *ClassificationService) resolveBaseline(ctx context.Context, scope models.Scope, label models.Classification, period models.BaselinePeriod) (time.Time, models.BaselineSource, error) {
	specific, err := s.repo.LatestBaseline(ctx, scope, label, period)
	if err != nil {
		return time.Time{}, "", err
	}
	if specific != nil {
		return specific.ResetAt, models.BaselineSourceClassification, nil
	}
	all, err := s.repo.LatestBaseline(ctx, scope, models.ClassificationAll, period)
	if err != nil {
		return time.Time{}, "", err
	}
	if all != nil {
		return all.ResetAt, models.BaselineSourceAll, nil
	}
	return s.now().Add(-s.windows.of(period)), models.BaselineSourceRolling, nil
}

// UpcomingAdults lists active, not-yet-adult officers who reach the adult threshold within the
// window, soonest first.
func (s *ClassificationService) UpcomingAdults(ctx context.Context, actor *models.JWTClaims, query dto.UpcomingAdultsQuery) (*dto.UpcomingAdultsResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	within := query.WithinDays
	if within <= 0 {
		within = DefaultUpcomingAdultsWindow
	}
	scope := models.Scope{District: query.District, Congregation: query.Congregation}.Normalize()
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, err
	}
	officers, err := s.officers.ListActiveInScope(ctx, scope)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list officers")
	}

	today := dateOf(s.now())
	limit := today.AddDate(0, 0, within)
	resp := &dto.UpcomingAdultsResponse{WithinDays: within, Items: []dto.UpcomingAdult{}}
	for i := range officers {
		officer := &officers[i]
		if effective := officer.EffectiveClassification(); effective != nil && *effective == models.ClassificationAdult {
			continue
		}
		birthdate, err := s.birthdate(officer)
		if err != nil {
			resp.Unavailable++
			continue
		}
		if birthdate == nil {
			continue
		}
		adultOn := s.classifier.AdultOn(*birthdate)
		if adultOn.Before(today) || adultOn.After(limit) {
			continue
		}
		name, _ := displayIdentity(s.cipher, s.logger, s.metrics, officer.ID, models.OfficerIdentity{
			OfficerDistrict: officer.District,
			LastName:        officer.LastName,
			FirstName:       officer.FirstName,
			MiddleName:      officer.MiddleName,
			Suffix:          officer.Suffix,
		})
		resp.Items = append(resp.Items, dto.UpcomingAdult{
			OfficerID:      officer.ID,
			RefNo:          officer.RefNo,
			FullName:       name,
			Birthdate:      birthdate.Format(dto.DateLayout),
			TurnsAdultOn:   adultOn.Format(dto.DateLayout),
			DaysUntil:      int(adultOn.Sub(today).Hours() / 24),
			Classification: officer.EffectiveClassification(),
		})
	}
	sort.SliceStable(resp.Items, func(i, j int) bool {
		return resp.Items[i].DaysUntil < resp.Items[j].DaysUntil
	})
	return resp, nil
}

// ListChanges returns the classification change log of a congregation, hiding entries older
// than the latest clear marker unless includeCleared is set.
func (s *ClassificationService) ListChanges(ctx context.Context, actor *models.JWTClaims, query dto.ClassificationChangeQuery) ([]dto.ClassificationChangeView, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	scope := ResolveScope(actor, models.Scope{District: query.District, Congregation: query.Congregation})
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, nil, err
	}
	filter := models.ClassificationChangeFilter{
		District:     scope.District,
		Congregation: scope.Congregation,
		Source:       models.ChangeSource(query.Source),
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if !query.IncludeCleared && scope.Congregation != "" && s.markers != nil {
		marker, err := s.markers.Latest(ctx, models.ViewClassificationChanges, scope)
		if err != nil {
			return nil, nil, appErrors.Storage(err, "failed to load view marker")
		}
		if marker != nil {
			filter.ClearedBefore = &marker.ClearedAt
		}
	}
	rows, total, err := s.repo.ListChanges(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list classification changes")
	}
	views := make([]dto.ClassificationChangeView, 0, len(rows))
	for _, row := range rows {
		name, unavailable := displayIdentity(s.cipher, s.logger, s.metrics, row.OfficerID, row.OfficerIdentity)
		views = append(views, dto.ClassificationChangeView{
			ClassificationChange: row.ClassificationChange,
			RefNo:                row.RefNo,
			OfficerName:          name,
			UnavailableFields:    unavailable,
		})
	}
	return views, pageOf(query.PageQuery, total), nil
}

func (s *ClassificationService) load(ctx context.Context, actor *models.JWTClaims, id string, level models.AccessLevel) (*models.Officer, error) {
	officer, err := s.officers.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "failed to load officer")
	}
	if err := s.authz.Authorize(ctx, actor, officer.Scope(), level); err != nil {
		return nil, err
	}
	return officer, nil
}
