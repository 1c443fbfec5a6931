package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/webpack-chart/internal/repository"
)

// MockCatalog is a mock implementation of repository.Catalog.
type MockCatalog struct {
	mock.Mock
}

// Save mocks the Save method.
func (m *MockCatalog) Save(ctx context.Context, rec *repository.ReportRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockCatalog) Get(ctx context.Context, id int64) (*repository.ReportRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReportRecord), args.Error(1)
}

// List mocks the List method.
func (m *MockCatalog) List(ctx context.Context, limit int) ([]*repository.ReportRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ReportRecord), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockCatalog) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
