package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) Create(ctx context.Context, mat *model.Material) (*model.Material, error) {
	args := m.Called(ctx, mat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByID(ctx context.Context, id string) (*model.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) List(ctx context.Context, f repository.MaterialFilter) ([]model.Material, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Material), args.Error(1)
}

func (m *MockMaterialRepository) ListByUploader(ctx context.Context, uploaderID string) ([]model.Material, error) {
	args := m.Called(ctx, uploaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Material), args.Error(1)
}

func (m *MockMaterialRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
