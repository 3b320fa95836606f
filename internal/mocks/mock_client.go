package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/zjrosen/roomflow/internal/session"
)

// MockClient is a testify mock of session.Client.
type MockClient struct {
	mock.Mock
}

type MockClient_Expecter struct {
	mock *mock.Mock
}

func (_m *MockClient) EXPECT() *MockClient_Expecter {
	return &MockClient_Expecter{mock: &_m.Mock}
}

// UserID provides a mock function with no fields
func (_m *MockClient) UserID() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for UserID")
	}
	return ret.String(0)
}

func (_e *MockClient_Expecter) UserID() *mock.Call {
	return _e.mock.On("UserID")
}

// RoomSummary provides a mock function with given fields: ctx, roomID
func (_m *MockClient) RoomSummary(ctx context.Context, roomID string) (session.RoomInfo, error) {
	ret := _m.Called(ctx, roomID)

	if len(ret) == 0 {
		panic("no return value specified for RoomSummary")
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) (session.RoomInfo, error)); ok {
		return rf(ctx, roomID)
	}
	return ret.Get(0).(session.RoomInfo), ret.Error(1)
}

type MockClient_RoomSummary_Call struct {
	*mock.Call
}

func (_e *MockClient_Expecter) RoomSummary(ctx interface{}, roomID interface{}) *MockClient_RoomSummary_Call {
	return &MockClient_RoomSummary_Call{Call: _e.mock.On("RoomSummary", ctx, roomID)}
}

func (_c *MockClient_RoomSummary_Call) Return(_a0 session.RoomInfo, _a1 error) *MockClient_RoomSummary_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockClient_RoomSummary_Call) RunAndReturn(run func(context.Context, string) (session.RoomInfo, error)) *MockClient_RoomSummary_Call {
	_c.Call.Return(run)
	return _c
}

// ResolveAlias provides a mock function with given fields: ctx, alias
func (_m *MockClient) ResolveAlias(ctx context.Context, alias string) (session.AliasResolution, error) {
	ret := _m.Called(ctx, alias)

	if len(ret) == 0 {
		panic("no return value specified for ResolveAlias")
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) (session.AliasResolution, error)); ok {
		return rf(ctx, alias)
	}
	return ret.Get(0).(session.AliasResolution), ret.Error(1)
}

type MockClient_ResolveAlias_Call struct {
	*mock.Call
}

func (_e *MockClient_Expecter) ResolveAlias(ctx interface{}, alias interface{}) *MockClient_ResolveAlias_Call {
	return &MockClient_ResolveAlias_Call{Call: _e.mock.On("ResolveAlias", ctx, alias)}
}

func (_c *MockClient_ResolveAlias_Call) Return(_a0 session.AliasResolution, _a1 error) *MockClient_ResolveAlias_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// EventDetails provides a mock function with given fields: ctx, roomID, eventID
func (_m *MockClient) EventDetails(ctx context.Context, roomID string, eventID string) (session.EventDetails, error) {
	ret := _m.Called(ctx, roomID, eventID)

	if len(ret) == 0 {
		panic("no return value specified for EventDetails")
	}
	return ret.Get(0).(session.EventDetails), ret.Error(1)
}

type MockClient_EventDetails_Call struct {
	*mock.Call
}

func (_e *MockClient_Expecter) EventDetails(ctx interface{}, roomID interface{}, eventID interface{}) *MockClient_EventDetails_Call {
	return &MockClient_EventDetails_Call{Call: _e.mock.On("EventDetails", ctx, roomID, eventID)}
}

func (_c *MockClient_EventDetails_Call) Return(_a0 session.EventDetails, _a1 error) *MockClient_EventDetails_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// Invite provides a mock function with given fields: ctx, roomID, userID
func (_m *MockClient) Invite(ctx context.Context, roomID string, userID string) error {
	ret := _m.Called(ctx, roomID, userID)

	if len(ret) == 0 {
		panic("no return value specified for Invite")
	}
	return ret.Error(0)
}

type MockClient_Invite_Call struct {
	*mock.Call
}

func (_e *MockClient_Expecter) Invite(ctx interface{}, roomID interface{}, userID interface{}) *MockClient_Invite_Call {
	return &MockClient_Invite_Call{Call: _e.mock.On("Invite", ctx, roomID, userID)}
}

func (_c *MockClient_Invite_Call) Return(_a0 error) *MockClient_Invite_Call {
	_c.Call.Return(_a0)
	return _c
}

// JoinRoom provides a mock function with given fields: ctx, roomID, via
func (_m *MockClient) JoinRoom(ctx context.Context, roomID string, via []string) (session.RoomInfo, error) {
	ret := _m.Called(ctx, roomID, via)

	if len(ret) == 0 {
		panic("no return value specified for JoinRoom")
	}
	return ret.Get(0).(session.RoomInfo), ret.Error(1)
}

type MockClient_JoinRoom_Call struct {
	*mock.Call
}

func (_e *MockClient_Expecter) JoinRoom(ctx interface{}, roomID interface{}, via interface{}) *MockClient_JoinRoom_Call {
	return &MockClient_JoinRoom_Call{Call: _e.mock.On("JoinRoom", ctx, roomID, via)}
}

func (_c *MockClient_JoinRoom_Call) Return(_a0 session.RoomInfo, _a1 error) *MockClient_JoinRoom_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// TrackRecentlyVisitedRoom provides a mock function with given fields: ctx, roomID
func (_m *MockClient) TrackRecentlyVisitedRoom(ctx context.Context, roomID string) error {
	ret := _m.Called(ctx, roomID)

	if len(ret) == 0 {
		panic("no return value specified for TrackRecentlyVisitedRoom")
	}
	return ret.Error(0)
}

type MockClient_TrackRecentlyVisitedRoom_Call struct {
	*mock.Call
}

func (_e *MockClient_Expecter) TrackRecentlyVisitedRoom(ctx interface{}, roomID interface{}) *MockClient_TrackRecentlyVisitedRoom_Call {
	return &MockClient_TrackRecentlyVisitedRoom_Call{Call: _e.mock.On("TrackRecentlyVisitedRoom", ctx, roomID)}
}

func (_c *MockClient_TrackRecentlyVisitedRoom_Call) Return(_a0 error) *MockClient_TrackRecentlyVisitedRoom_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockClient creates a mock and registers a cleanup that asserts its
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ session.Client = (*MockClient)(nil)
