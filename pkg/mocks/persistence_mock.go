package mocks

import (
	"context"

	"github.com/dukex/operion-canvas/pkg/models"
	"github.com/dukex/operion-canvas/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func (m *MockPersistence) Graphs(ctx context.Context, opts persistence.ListGraphsOptions) ([]models.GraphSummary, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.GraphSummary), args.Error(1)
}

func (m *MockPersistence) GraphByID(ctx context.Context, id string) (*models.Graph, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Graph), args.Error(1)
}

func (m *MockPersistence) SaveGraph(ctx context.Context, graph *models.Graph) error {
	args := m.Called(ctx, graph)

	return args.Error(0)
}

func (m *MockPersistence) DeleteGraph(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
