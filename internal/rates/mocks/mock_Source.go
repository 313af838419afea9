// Package mocks provides test doubles for the rates source.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/meridianlending/underwrite/internal/model"
)

// MockSource is a mock type for the Source interface.
type MockSource struct {
	mock.Mock
}

// Name provides a mock function with no fields
func (_m *MockSource) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// GetBaseRate provides a mock function with given fields: ctx, kind
func (_m *MockSource) GetBaseRate(ctx context.Context, kind model.BaseRateKind) (float64, error) {
	ret := _m.Called(ctx, kind)

	if len(ret) == 0 {
		panic("no return value specified for GetBaseRate")
	}

	var r0 float64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.BaseRateKind) (float64, error)); ok {
		return rf(ctx, kind)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.BaseRateKind) float64); ok {
		r0 = rf(ctx, kind)
	} else {
		r0 = ret.Get(0).(float64)
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.BaseRateKind) error); ok {
		r1 = rf(ctx, kind)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSource creates a new instance of MockSource.
func NewMockSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSource {
	mock := &MockSource{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
