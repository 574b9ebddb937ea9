package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/service"
)

type MockMaterialService struct {
	mock.Mock
}

func (m *MockMaterialService) Create(ctx context.Context, in service.CreateMaterialInput, uploader model.Uploader) (*model.Material, error) {
	args := m.Called(ctx, in, uploader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialService) Get(ctx context.Context, id string) (*model.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialService) List(ctx context.Context, f repository.MaterialFilter) ([]model.Material, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Material), args.Error(1)
}

func (m *MockMaterialService) ListByUploader(ctx context.Context, uploaderID string) ([]model.Material, error) {
	args := m.Called(ctx, uploaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Material), args.Error(1)
}

func (m *MockMaterialService) Vote(ctx context.Context, materialID, userID string, vote model.VoteType) (*model.Material, error) {
	args := m.Called(ctx, materialID, userID, vote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialService) Report(ctx context.Context, materialID, userID, reason string) (*model.Report, error) {
	args := m.Called(ctx, materialID, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockMaterialService) Delete(ctx context.Context, materialID, requesterID string) error {
	args := m.Called(ctx, materialID, requesterID)
	return args.Error(0)
}

func (m *MockMaterialService) DownloadURL(ctx context.Context, materialID string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, materialID, expiry)
	return args.String(0), args.Error(1)
}
