package mocks

import (
	"context"
	"time"

	mock "github.com/stretchr/testify/mock"

	"github.com/zjrosen/roomflow/internal/cachemanager"
)

// MockCacheManager is a testify mock of cachemanager.CacheManager.
type MockCacheManager[K ~string, V any] struct {
	mock.Mock
}

type MockCacheManager_Expecter[K ~string, V any] struct {
	mock *mock.Mock
}

func (_m *MockCacheManager[K, V]) EXPECT() *MockCacheManager_Expecter[K, V] {
	return &MockCacheManager_Expecter[K, V]{mock: &_m.Mock}
}

// Get provides a mock function with given fields: ctx, key
func (_m *MockCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	ret := _m.Called(ctx, key)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 V
	var r1 bool
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(V)
	}
	r1 = ret.Get(1).(bool)
	return r0, r1
}

type MockCacheManager_Get_Call[K ~string, V any] struct {
	*mock.Call
}

func (_e *MockCacheManager_Expecter[K, V]) Get(ctx interface{}, key interface{}) *MockCacheManager_Get_Call[K, V] {
	return &MockCacheManager_Get_Call[K, V]{Call: _e.mock.On("Get", ctx, key)}
}

func (_c *MockCacheManager_Get_Call[K, V]) Return(_a0 V, _a1 bool) *MockCacheManager_Get_Call[K, V] {
	_c.Call.Return(_a0, _a1)
	return _c
}

// GetWithRefresh provides a mock function with given fields: ctx, key, ttl
func (_m *MockCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	ret := _m.Called(ctx, key, ttl)

	if len(ret) == 0 {
		panic("no return value specified for GetWithRefresh")
	}

	var r0 V
	var r1 bool
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(V)
	}
	r1 = ret.Get(1).(bool)
	return r0, r1
}

type MockCacheManager_GetWithRefresh_Call[K ~string, V any] struct {
	*mock.Call
}

func (_e *MockCacheManager_Expecter[K, V]) GetWithRefresh(ctx interface{}, key interface{}, ttl interface{}) *MockCacheManager_GetWithRefresh_Call[K, V] {
	return &MockCacheManager_GetWithRefresh_Call[K, V]{Call: _e.mock.On("GetWithRefresh", ctx, key, ttl)}
}

func (_c *MockCacheManager_GetWithRefresh_Call[K, V]) Return(_a0 V, _a1 bool) *MockCacheManager_GetWithRefresh_Call[K, V] {
	_c.Call.Return(_a0, _a1)
	return _c
}

// Set provides a mock function with given fields: ctx, key, value, ttl
func (_m *MockCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	_m.Called(ctx, key, value, ttl)
}

type MockCacheManager_Set_Call[K ~string, V any] struct {
	*mock.Call
}

func (_e *MockCacheManager_Expecter[K, V]) Set(ctx interface{}, key interface{}, value interface{}, ttl interface{}) *MockCacheManager_Set_Call[K, V] {
	return &MockCacheManager_Set_Call[K, V]{Call: _e.mock.On("Set", ctx, key, value, ttl)}
}

func (_c *MockCacheManager_Set_Call[K, V]) Return() *MockCacheManager_Set_Call[K, V] {
	_c.Call.Return()
	return _c
}

// Delete provides a mock function with given fields: ctx, keys
func (_m *MockCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	args := []interface{}{ctx}
	for _, k := range keys {
		args = append(args, k)
	}
	ret := _m.Called(args...)

	if len(ret) == 0 {
		panic("no return value specified for Delete")
	}
	return ret.Error(0)
}

type MockCacheManager_Delete_Call[K ~string, V any] struct {
	*mock.Call
}

func (_e *MockCacheManager_Expecter[K, V]) Delete(ctx interface{}, keys ...interface{}) *MockCacheManager_Delete_Call[K, V] {
	return &MockCacheManager_Delete_Call[K, V]{Call: _e.mock.On("Delete", append([]interface{}{ctx}, keys...)...)}
}

func (_c *MockCacheManager_Delete_Call[K, V]) Return(_a0 error) *MockCacheManager_Delete_Call[K, V] {
	_c.Call.Return(_a0)
	return _c
}

// Flush provides a mock function with given fields: ctx
func (_m *MockCacheManager[K, V]) Flush(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Flush")
	}
	return ret.Error(0)
}

// Stats provides a mock function with no fields
func (_m *MockCacheManager[K, V]) Stats() cachemanager.Stats {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Stats")
	}
	return ret.Get(0).(cachemanager.Stats)
}

// NewMockCacheManager creates a mock and registers a cleanup that asserts
// its expectations.
func NewMockCacheManager[K ~string, V any](t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCacheManager[K, V] {
	m := &MockCacheManager[K, V]{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ cachemanager.CacheManager[string, int] = (*MockCacheManager[string, int])(nil)
