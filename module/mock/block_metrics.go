package mock

import (
	time "time"

	mock "github.com/stretchr/testify/mock"

	chain "github.com/selendra/selendra-finality/model/chain"
	module "github.com/selendra/selendra-finality/module"
)

// BlockMetrics is a mock type for the BlockMetrics type
type BlockMetrics struct {
	mock.Mock
}

// ReportBlock provides a mock function with given fields: hash, at, checkpoint
func (_m *BlockMetrics) ReportBlock(hash chain.Hash, at time.Time, checkpoint module.Checkpoint) {
	_m.Called(hash, at, checkpoint)
}

type mockConstructorTestingTNewBlockMetrics interface {
	mock.TestingT
	Cleanup(func())
}

// NewBlockMetrics creates a new instance of BlockMetrics. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewBlockMetrics(t mockConstructorTestingTNewBlockMetrics) *BlockMetrics {
	m := &BlockMetrics{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
