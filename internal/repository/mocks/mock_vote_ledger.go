package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

type MockVoteLedger struct {
	mock.Mock
}

func (m *MockVoteLedger) HasVoted(ctx context.Context, materialID, userID string) (bool, error) {
	args := m.Called(ctx, materialID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVoteLedger) Record(ctx context.Context, materialID, userID string, vote model.VoteType) (repository.VoteCounts, error) {
	args := m.Called(ctx, materialID, userID, vote)
	return args.Get(0).(repository.VoteCounts), args.Error(1)
}
