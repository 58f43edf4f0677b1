package mock

import (
	mock "github.com/stretchr/testify/mock"

	chain "github.com/selendra/selendra-finality/model/chain"
)

// JustificationSubmissions is a mock type for the JustificationSubmissions type
type JustificationSubmissions struct {
	mock.Mock
}

// Submit provides a mock function with given fields: justification
func (_m *JustificationSubmissions) Submit(justification *chain.Justification) error {
	ret := _m.Called(justification)

	var r0 error
	if rf, ok := ret.Get(0).(func(*chain.Justification) error); ok {
		r0 = rf(justification)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type mockConstructorTestingTNewJustificationSubmissions interface {
	mock.TestingT
	Cleanup(func())
}

// NewJustificationSubmissions creates a new instance of JustificationSubmissions. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewJustificationSubmissions(t mockConstructorTestingTNewJustificationSubmissions) *JustificationSubmissions {
	m := &JustificationSubmissions{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
