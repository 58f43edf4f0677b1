package mock

import (
	mock "github.com/stretchr/testify/mock"

	chain "github.com/selendra/selendra-finality/model/chain"
)

// Verifier is a mock type for the Verifier type
type Verifier struct {
	mock.Mock
}

// Verify provides a mock function with given fields: justification
func (_m *Verifier) Verify(justification *chain.Justification) (*chain.Justification, error) {
	ret := _m.Called(justification)

	var r0 *chain.Justification
	var r1 error
	if rf, ok := ret.Get(0).(func(*chain.Justification) (*chain.Justification, error)); ok {
		return rf(justification)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*chain.Justification)
	}
	r1 = ret.Error(1)

	return r0, r1
}

type mockConstructorTestingTNewVerifier interface {
	mock.TestingT
	Cleanup(func())
}

// NewVerifier creates a new instance of Verifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewVerifier(t mockConstructorTestingTNewVerifier) *Verifier {
	m := &Verifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
