package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/templemind/internal/ai"
	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/services"
)

// MockProgressService is a mock implementation of services.ProgressService
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) RecordResult(ctx context.Context, res models.GameResult) (*models.UserProgress, error) {
	args := m.Called(ctx, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProgress), args.Error(1)
}

func (m *MockProgressService) Overview(ctx context.Context, caller models.Identity) (*services.Overview, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Overview), args.Error(1)
}

func (m *MockProgressService) ListResults(ctx context.Context, caller models.Identity, filter models.ResultFilter) (*services.ResultPage, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ResultPage), args.Error(1)
}

func (m *MockProgressService) TotalStars(ctx context.Context, caller models.Identity) (int, error) {
	args := m.Called(ctx, caller)
	return args.Int(0), args.Error(1)
}

func (m *MockProgressService) LevelBests(ctx context.Context, caller models.Identity) (map[int]models.LevelBest, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]models.LevelBest), args.Error(1)
}

// MockCompanion is a mock implementation of services.Companion
type MockCompanion struct {
	mock.Mock
}

func (m *MockCompanion) Persona(religion models.Religion) content.Persona {
	args := m.Called(religion)
	return args.Get(0).(content.Persona)
}

func (m *MockCompanion) GenerateResponse(ctx context.Context, req ai.ChatRequest) ai.Reply {
	args := m.Called(ctx, req)
	return args.Get(0).(ai.Reply)
}

func (m *MockCompanion) GenerateHealthTip(ctx context.Context, religion models.Religion) ai.Reply {
	args := m.Called(ctx, religion)
	return args.Get(0).(ai.Reply)
}

func (m *MockCompanion) GenerateGameQuestion(ctx context.Context, gameType models.GameType, religion models.Religion, chapter int) models.Question {
	args := m.Called(ctx, gameType, religion, chapter)
	return args.Get(0).(models.Question)
}
