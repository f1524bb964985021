package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

type headcountStore interface {
	Get(ctx context.Context, scope models.Scope) (*models.Headcount, error)
	ListByDistrict(ctx context.Context, district string) ([]models.Headcount, error)
	CountActive(ctx context.Context, scope models.Scope) (int, error)
}

// HeadcountService serves the materialized headcount through a read-through cache.
type HeadcountService struct {
	repo    headcountStore
	authz   ScopeAuthorizer
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewHeadcountService constructs the service. cache may be nil.
func NewHeadcountService(repo headcountStore, authz ScopeAuthorizer, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *HeadcountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if authz == nil {
		authz = NewClaimsScopeAuthorizer()
	}
	return &HeadcountService{
		repo:    repo,
		authz:   authz,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func headcountKey(scope models.Scope) string {
	return fmt.Sprintf("headcount:%s:%s", scope.District, scope.Congregation)
}

func headcountListKey(district string) string {
	return fmt.Sprintf("headcount:list:%s", district)
}

// Get returns the headcount of one congregation. A congregation without a row reads as zero.
func (s *HeadcountService) Get(ctx context.Context, actor *models.JWTClaims, scope models.Scope) (*models.Headcount, error) {
	scope = scope.Normalize()
	if scope.Congregation == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "congregation is required")
	}
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, err
	}
	key := headcountKey(scope)
	var cached models.Headcount
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	row, err := s.repo.Get(ctx, scope)
	s.metrics.ObserveDBQuery("headcount_get", time.Since(start))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load headcount")
	}
	_ = s.cache.Set(ctx, key, row, s.ttl)
	return row, nil
}

// ListByDistrict returns every congregation counter of a district.
func (s *HeadcountService) ListByDistrict(ctx context.Context, actor *models.JWTClaims, district string) ([]models.Headcount, error) {
	scope := models.Scope{District: district}.Normalize()
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, err
	}
	key := headcountListKey(scope.District)
	var cached []models.Headcount
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	start := time.Now()
	rows, err := s.repo.ListByDistrict(ctx, scope.District)
	s.metrics.ObserveDBQuery("headcount_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list headcounts")
	}
	if rows == nil {
		rows = []models.Headcount{}
	}
	_ = s.cache.Set(ctx, key, rows, s.ttl)
	return rows, nil
}

// Verify compares the counter with a live count of active officers. It never repairs drift.
func (s *HeadcountService) Verify(ctx context.Context, actor *models.JWTClaims, scope models.Scope) (*dto.HeadcountVerification, error) {
	scope = scope.Normalize()
	if scope.Congregation == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "congregation is required")
	}
	if err := s.authz.Authorize(ctx, actor, scope, models.AccessRead); err != nil {
		return nil, err
	}
	row, err := s.repo.Get(ctx, scope)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load headcount")
	}
	active, err := s.repo.CountActive(ctx, scope)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to count active officers")
	}
	result := &dto.HeadcountVerification{
		District:     scope.District,
		Congregation: scope.Congregation,
		Counter:      row.TotalCount,
		Active:       active,
		Consistent:   row.TotalCount == active,
		CheckedAt:    s.now(),
	}
	if !result.Consistent {
		s.logger.Error("headcount drift detected",
			zap.String("district", scope.District),
			zap.String("congregation", scope.Congregation),
			zap.Int("counter", row.TotalCount),
			zap.Int("active", active),
		)
	}
	return result, nil
}

// Invalidate drops cached counters touched by a committed mutation.
func (s *HeadcountService) Invalidate(ctx context.Context, scopes ...models.Scope) {
	keys := make([]string, 0, 2*len(scopes))
	for _, scope := range scopes {
		scope = scope.Normalize()
		keys = append(keys, headcountKey(scope), headcountListKey(scope.District))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("headcount cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Flush drops every cached counter, used at boot since the store may have changed meanwhile.
func (s *HeadcountService) Flush(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "headcount:*")
}
