package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/worker"
)

// MockResultQueue is a mock implementation of jobs.ResultQueue
type MockResultQueue struct {
	mock.Mock
}

func (m *MockResultQueue) EnqueueResult(tracker worker.SaveTracker, res models.GameResult) error {
	args := m.Called(tracker, res)
	return args.Error(0)
}
