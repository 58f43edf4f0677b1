package mock

import (
	context "context"

	mock "github.com/stretchr/testify/mock"

	blockimport "github.com/selendra/selendra-finality/module/blockimport"
)

// BlockImporter is a mock type for the BlockImporter type
type BlockImporter struct {
	mock.Mock
}

// CheckBlock provides a mock function with given fields: ctx, params
func (_m *BlockImporter) CheckBlock(ctx context.Context, params blockimport.CheckParams) (blockimport.ImportResult, error) {
	ret := _m.Called(ctx, params)

	var r0 blockimport.ImportResult
	if rf, ok := ret.Get(0).(func(context.Context, blockimport.CheckParams) blockimport.ImportResult); ok {
		r0 = rf(ctx, params)
	} else {
		r0 = ret.Get(0).(blockimport.ImportResult)
	}

	return r0, ret.Error(1)
}

// ImportBlock provides a mock function with given fields: ctx, params
func (_m *BlockImporter) ImportBlock(ctx context.Context, params *blockimport.ImportParams) (blockimport.ImportResult, error) {
	ret := _m.Called(ctx, params)

	var r0 blockimport.ImportResult
	if rf, ok := ret.Get(0).(func(context.Context, *blockimport.ImportParams) blockimport.ImportResult); ok {
		r0 = rf(ctx, params)
	} else {
		r0 = ret.Get(0).(blockimport.ImportResult)
	}

	return r0, ret.Error(1)
}

type mockConstructorTestingTNewBlockImporter interface {
	mock.TestingT
	Cleanup(func())
}

// NewBlockImporter creates a new instance of BlockImporter. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewBlockImporter(t mockConstructorTestingTNewBlockImporter) *BlockImporter {
	m := &BlockImporter{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
