package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

// memoryCache mimics the redis repository with JSON payloads.
type memoryCache struct {
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

type headcountStoreStub struct {
	counts map[models.Scope]int
	active map[models.Scope]int
	reads  int
	err    error
}

func (s *headcountStoreStub) Get(_ context.Context, scope models.Scope) (*models.Headcount, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Headcount{District: scope.District, Congregation: scope.Congregation, TotalCount: s.counts[scope]}, nil
}

func (s *headcountStoreStub) ListByDistrict(_ context.Context, district string) ([]models.Headcount, error) {
	s.reads++
	var rows []models.Headcount
	for scope, total := range s.counts {
		if scope.District == district {
			rows = append(rows, models.Headcount{District: scope.District, Congregation: scope.Congregation, TotalCount: total})
		}
	}
	return rows, nil
}

func (s *headcountStoreStub) CountActive(_ context.Context, scope models.Scope) (int, error) {
	return s.active[scope], nil
}

func newHeadcountFixture() (*HeadcountService, *headcountStoreStub, *memoryCache) {
	scope := models.Scope{District: "D-101", Congregation: "C"}
	store := &headcountStoreStub{counts: map[models.Scope]int{scope: 5}, active: map[models.Scope]int{scope: 5}}
	cache := newMemoryCache()
	svc := NewHeadcountService(store, nil, NewCacheService(cache, nil, time.Minute, nil, true), nil, time.Minute, nil)
	return svc, store, cache
}

func TestHeadcountGetReadsThroughCache(t *testing.T) {
	svc, store, cache := newHeadcountFixture()
	scope := models.Scope{District: "d-101", Congregation: "C"}

	first, err := svc.Get(context.Background(), congregationAdmin(), scope)
	require.NoError(t, err)
	assert.Equal(t, 5, first.TotalCount)
	assert.Contains(t, cache.items, "headcount:D-101:C")

	store.counts[models.Scope{District: "D-101", Congregation: "C"}] = 6
	second, err := svc.Get(context.Background(), congregationAdmin(), scope)
	require.NoError(t, err)
	assert.Equal(t, 5, second.TotalCount)
	assert.Equal(t, 1, store.reads)

	svc.Invalidate(context.Background(), scope)
	third, err := svc.Get(context.Background(), congregationAdmin(), scope)
	require.NoError(t, err)
	assert.Equal(t, 6, third.TotalCount)
}

func TestHeadcountGetRequiresCongregationAndScope(t *testing.T) {
	svc, _, _ := newHeadcountFixture()

	_, err := svc.Get(context.Background(), congregationAdmin(), models.Scope{District: "D-101"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Get(context.Background(), congregationAdmin(), models.Scope{District: "D-101", Congregation: "East"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestHeadcountStorageFailure(t *testing.T) {
	svc, store, _ := newHeadcountFixture()
	store.err = errors.New("database is locked")

	_, err := svc.Get(context.Background(), congregationAdmin(), models.Scope{District: "D-101", Congregation: "C"})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
}

func TestHeadcountVerifyReportsDrift(t *testing.T) {
	svc, store, _ := newHeadcountFixture()
	scope := models.Scope{District: "D-101", Congregation: "C"}

	result, err := svc.Verify(context.Background(), congregationAdmin(), scope)
	require.NoError(t, err)
	assert.True(t, result.Consistent)

	store.active[scope] = 4
	result, err = svc.Verify(context.Background(), congregationAdmin(), scope)
	require.NoError(t, err)
	assert.False(t, result.Consistent)
	assert.Equal(t, 5, result.Counter)
	assert.Equal(t, 4, result.Active)
	assert.Equal(t, 5, store.counts[scope])
}

func TestHeadcountFlushDropsEveryCounter(t *testing.T) {
	svc, _, cache := newHeadcountFixture()
	_, err := svc.ListByDistrict(context.Background(), districtAdmin(), "D-101")
	require.NoError(t, err)
	cache.items["other:key"] = []byte("1")

	require.NoError(t, svc.Flush(context.Background()))
	assert.NotContains(t, cache.items, "headcount:list:D-101")
	assert.Contains(t, cache.items, "other:key")
}
