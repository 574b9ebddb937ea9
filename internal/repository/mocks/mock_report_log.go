package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
)

type MockReportLog struct {
	mock.Mock
}

func (m *MockReportLog) Append(ctx context.Context, r *model.Report) (*model.Report, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportLog) ListByMaterial(ctx context.Context, materialID string) ([]model.Report, error) {
	args := m.Called(ctx, materialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

func (m *MockReportLog) ListAll(ctx context.Context) ([]model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}
