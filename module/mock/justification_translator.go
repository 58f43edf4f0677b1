package mock

import (
	mock "github.com/stretchr/testify/mock"

	chain "github.com/selendra/selendra-finality/model/chain"
)

// JustificationTranslator is a mock type for the JustificationTranslator type
type JustificationTranslator struct {
	mock.Mock
}

// Translate provides a mock function with given fields: signatures, id
func (_m *JustificationTranslator) Translate(signatures *chain.SignatureSet, id chain.BlockID) (*chain.Justification, error) {
	ret := _m.Called(signatures, id)

	var r0 *chain.Justification
	var r1 error
	if rf, ok := ret.Get(0).(func(*chain.SignatureSet, chain.BlockID) (*chain.Justification, error)); ok {
		return rf(signatures, id)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*chain.Justification)
	}
	r1 = ret.Error(1)

	return r0, r1
}

type mockConstructorTestingTNewJustificationTranslator interface {
	mock.TestingT
	Cleanup(func())
}

// NewJustificationTranslator creates a new instance of JustificationTranslator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewJustificationTranslator(t mockConstructorTestingTNewJustificationTranslator) *JustificationTranslator {
	m := &JustificationTranslator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
