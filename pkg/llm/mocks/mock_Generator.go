// Package mocks provides test doubles for the llm generator port.
package mocks

import (
	"context"
	"encoding/json"

	mock "github.com/stretchr/testify/mock"

	llm "github.com/meridianlending/underwrite/pkg/llm"
)

// MockGenerator is a mock type for the Generator interface.
type MockGenerator struct {
	mock.Mock
}

// GenerateJSON provides a mock function with given fields: ctx, req
func (_m *MockGenerator) GenerateJSON(ctx context.Context, req llm.GenerateRequest) (json.RawMessage, llm.Usage, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for GenerateJSON")
	}

	var r0 json.RawMessage
	var r1 llm.Usage
	var r2 error
	if rf, ok := ret.Get(0).(func(context.Context, llm.GenerateRequest) (json.RawMessage, llm.Usage, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, llm.GenerateRequest) json.RawMessage); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(json.RawMessage)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, llm.GenerateRequest) llm.Usage); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Get(1).(llm.Usage)
	}

	if rf, ok := ret.Get(2).(func(context.Context, llm.GenerateRequest) error); ok {
		r2 = rf(ctx, req)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// NewMockGenerator creates a new instance of MockGenerator.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	mock := &MockGenerator{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
